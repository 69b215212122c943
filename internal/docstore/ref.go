package docstore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadRefPath indicates a reference path that is not of the form
// "collection/.../id".
var ErrBadRefPath = errors.New("malformed reference path")

// Ref is a stable pointer to a single document: a collection path plus the
// document id within it. Refs are persisted as their Path() string, so path
// string equality is reference equality.
type Ref struct {
	Collection string
	ID         string
}

// NewRef builds a reference from collection path segments and a document id.
// Segments are joined with "/", e.g. NewRef("seller", sellerID) or
// NewRef(CollectionJoin("customers", uid, "cart"), productID).
func NewRef(collection, id string) Ref {
	return Ref{Collection: collection, ID: id}
}

// CollectionJoin joins path segments into a collection path. Sub-collections
// nest under their owner's document id: customers/{id}/cart.
func CollectionJoin(segments ...string) string {
	return strings.Join(segments, "/")
}

// Path returns the canonical "collection/id" form used for persistence and
// for dedup comparisons.
func (r Ref) Path() string {
	return r.Collection + "/" + r.ID
}

// IsZero reports whether the reference is empty.
func (r Ref) IsZero() bool {
	return r.Collection == "" && r.ID == ""
}

func (r Ref) String() string { return r.Path() }

// ParseRef splits a path into its collection and document id. The id is the
// final segment; everything before it is the collection path.
func ParseRef(path string) (Ref, error) {
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return Ref{}, fmt.Errorf("%w: %q", ErrBadRefPath, path)
	}
	return Ref{Collection: path[:i], ID: path[i+1:]}, nil
}
