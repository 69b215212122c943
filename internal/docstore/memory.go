package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for local development and tests. It
// keeps documents in their marshaled attribute form so encode/decode and
// predicate behavior match the DynamoDB implementation. It intentionally
// does not implement TxRunner, which makes it the reference backend for the
// non-transactional commit path.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]types.AttributeValue
	nowFunc     func() time.Time
	newID       func() string
	newRev      func() int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: map[string]map[string]map[string]types.AttributeValue{},
		nowFunc:     time.Now,
		newID:       uuid.NewString,
		newRev:      newRevision,
	}
}

var _ Store = (*MemoryStore)(nil)

// SetNow overrides the clock used for server-assigned timestamps.
func (s *MemoryStore) SetNow(now func() time.Time) { s.nowFunc = now }

// SetIDFunc overrides document id generation.
func (s *MemoryStore) SetIDFunc(newID func() string) { s.newID = newID }

// NewID returns a fresh document id.
func (s *MemoryStore) NewID() string { return s.newID() }

func (s *MemoryStore) ensure(collection string) map[string]map[string]types.AttributeValue {
	coll, ok := s.collections[collection]
	if !ok {
		coll = map[string]map[string]types.AttributeValue{}
		s.collections[collection] = coll
	}
	return coll
}

func (s *MemoryStore) stamp(collection, id string, doc any, createdAt time.Time, version int64) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	item[attrCollection] = &types.AttributeValueMemberS{Value: collection}
	item[attrID] = &types.AttributeValueMemberS{Value: id}
	item[attrCreatedAt] = &types.AttributeValueMemberS{Value: createdAt.UTC().Format(time.RFC3339Nano)}
	item[attrVersion] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", version)}
	return item, nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.ensure(collection)[id]
	if !ok {
		return ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(item, out); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	return nil
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, doc any) (string, time.Time, error) {
	id := s.newID()
	createdAt := s.nowFunc().UTC()
	item, err := s.stamp(collection, id, doc, createdAt, s.newRev())
	if err != nil {
		return "", time.Time{}, err
	}
	s.mu.Lock()
	s.ensure(collection)[id] = item
	s.mu.Unlock()
	return id, createdAt, nil
}

func (s *MemoryStore) Put(ctx context.Context, collection, id string, doc any) error {
	item, err := s.stamp(collection, id, doc, s.nowFunc(), s.newRev())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ensure(collection)[id] = item
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, doc any) error {
	item, err := s.stamp(collection, id, doc, s.nowFunc(), s.newRev())
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.ensure(collection)
	if _, exists := coll[id]; exists {
		return ErrExists
	}
	coll[id] = item
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.update(collection, id, fields, nil)
}

func (s *MemoryStore) UpdateWhere(ctx context.Context, collection, id string, fields map[string]any, cond Predicate) error {
	if cond.Op != OpEqual {
		return fmt.Errorf("unsupported condition op %q", cond.Op)
	}
	return s.update(collection, id, fields, &cond)
}

func (s *MemoryStore) update(collection, id string, fields map[string]any, cond *Predicate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.ensure(collection)[id]
	if !ok {
		if cond != nil {
			return ErrConditionFailed
		}
		return ErrNotFound
	}
	if cond != nil {
		want, err := attributevalue.Marshal(cond.Value)
		if err != nil {
			return fmt.Errorf("marshal condition value: %w", err)
		}
		if !reflect.DeepEqual(item[cond.Field], want) {
			return ErrConditionFailed
		}
	}
	for field, value := range fields {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal field %s: %w", field, err)
		}
		item[field] = av
	}
	item[attrVersion] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", s.newRev())}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	delete(s.ensure(collection), id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, out any, preds ...Predicate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []map[string]types.AttributeValue
	for _, item := range s.ensure(collection) {
		match := true
		for _, p := range preds {
			ok, err := matchPredicate(item, p)
			if err != nil {
				return err
			}
			if !ok {
				match = false
				break
			}
		}
		if match {
			items = append(items, item)
		}
	}

	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("unmarshal query result: %w", err)
	}
	return nil
}

func (s *MemoryStore) BatchDelete(ctx context.Context, refs []Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ref := range refs {
		delete(s.ensure(ref.Collection), ref.ID)
	}
	return nil
}

func matchPredicate(item map[string]types.AttributeValue, p Predicate) (bool, error) {
	want, err := attributevalue.Marshal(p.Value)
	if err != nil {
		return false, fmt.Errorf("marshal predicate value for %s: %w", p.Field, err)
	}
	got, ok := item[p.Field]
	if !ok {
		return false, nil
	}
	switch p.Op {
	case OpEqual:
		return reflect.DeepEqual(got, want), nil
	case OpArrayContains:
		list, ok := got.(*types.AttributeValueMemberL)
		if !ok {
			return false, nil
		}
		for _, member := range list.Value {
			if reflect.DeepEqual(member, want) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unsupported predicate op %q", p.Op)
	}
}
