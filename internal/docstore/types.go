package docstore

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Sentinel errors surfaced by Store implementations. AWS-level failures are
// translated at the store boundary so callers never depend on SDK error types.
var (
	ErrNotFound        = errors.New("document not found")
	ErrExists          = errors.New("document already exists")
	ErrTxConflict      = errors.New("transaction conflict")
	ErrConditionFailed = errors.New("conditional check failed")
)

// PredicateOp selects the filter semantics of a Predicate.
type PredicateOp string

const (
	OpEqual         PredicateOp = "eq"
	OpArrayContains PredicateOp = "array-contains"
)

// Predicate filters a collection query on a single document field.
// OpEqual matches scalar equality; OpArrayContains matches membership in a
// list-valued field.
type Predicate struct {
	Field string
	Op    PredicateOp
	Value any
}

// Eq builds an equality predicate.
func Eq(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpEqual, Value: value}
}

// ArrayContains builds an array-membership predicate.
func ArrayContains(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpArrayContains, Value: value}
}

// Store is the document-store contract the order core consumes. Documents are
// any attributevalue-marshalable structs; reads decode into the caller's
// value. Collections are hierarchical path strings (see Ref).
type Store interface {
	// Get loads one document into out. ErrNotFound when absent.
	Get(ctx context.Context, collection, id string, out any) error
	// Insert writes a new document under a store-assigned id and returns the
	// id with the server-assigned creation timestamp.
	Insert(ctx context.Context, collection string, doc any) (string, time.Time, error)
	// Put writes a document under a caller-chosen id, replacing any existing
	// document at that key.
	Put(ctx context.Context, collection, id string, doc any) error
	// Create writes a document under a caller-chosen id only if no document
	// exists at that key. ErrExists otherwise.
	Create(ctx context.Context, collection, id string, doc any) error
	// Update applies a partial field update to an existing document and
	// stamps a fresh revision. ErrNotFound when the document is absent.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// UpdateWhere is Update guarded by an equality condition on a current
	// field value. ErrConditionFailed when the condition does not hold or
	// the document is absent.
	UpdateWhere(ctx context.Context, collection, id string, fields map[string]any, cond Predicate) error
	// Delete removes one document. Deleting an absent document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Query returns every document of a collection matching all predicates,
	// decoded into out (a pointer to a slice).
	Query(ctx context.Context, collection string, out any, preds ...Predicate) error
	// BatchDelete removes the referenced documents all-or-nothing.
	BatchDelete(ctx context.Context, refs []Ref) error
	// NewID returns a fresh store-unique document id.
	NewID() string
}

// TxOpKind discriminates transactional write operations.
type TxOpKind string

const (
	TxCreate TxOpKind = "create" // put, failing if the document exists
	TxPut    TxOpKind = "put"    // unconditional put
	TxDelete TxOpKind = "delete" // delete, optionally asserting version
)

// TxOp is one write inside a Transact call.
type TxOp struct {
	Kind TxOpKind
	Ref  Ref
	Doc  any
	// ExpectVersion, when > 0 on a TxDelete, makes the delete assert the
	// document's current revision. A mismatch cancels the whole transaction.
	ExpectVersion int64
}

// newRevision returns a random nonzero document revision. Revisions are
// unique per write rather than monotonic: a document deleted and written
// again under the same key never repeats an earlier revision, so a stale
// revision assert cannot match the newer document.
func newRevision() int64 {
	return rand.Int63n(1<<62) + 1
}

// TxRunner is implemented by stores with multi-document transaction support.
// The order committer upgrades to a single atomic commit when its store
// satisfies this interface.
type TxRunner interface {
	// Transact applies all ops atomically. Any failed condition cancels the
	// batch and returns ErrTxConflict.
	Transact(ctx context.Context, ops []TxOp) error
}
