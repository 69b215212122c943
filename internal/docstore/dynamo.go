package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/bazaarhq/storefront-orders/internal/aws"
)

// Item attributes managed by the store itself. Documents must not carry
// fields with these names.
const (
	attrCollection = "collection" // partition key
	attrID         = "id"         // sort key
	attrCreatedAt  = "created_at"
	attrVersion    = "doc_version" // per-write revision, asserted by transactional deletes
)

// DynamoStore implements Store and TxRunner on a single DynamoDB table with
// partition key "collection" (the full hierarchical collection path) and sort
// key "id". Sub-collection nesting from the logical layout maps directly onto
// partition key prefixes, e.g. customers/u1/cart.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
	newID     func() string
	newRev    func() int64
}

// NewDynamoStore creates a DynamoStore bound to a table.
func NewDynamoStore(client aws.DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
		newID:     uuid.NewString,
		newRev:    newRevision,
	}
}

var _ Store = (*DynamoStore)(nil)
var _ TxRunner = (*DynamoStore)(nil)

// NewID returns a fresh document id.
func (s *DynamoStore) NewID() string { return s.newID() }

func (s *DynamoStore) key(collection, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrCollection: &types.AttributeValueMemberS{Value: collection},
		attrID:         &types.AttributeValueMemberS{Value: id},
	}
}

// marshalItem marshals doc and stamps the store-managed attributes. Every
// write carries a fresh revision so deleting and re-creating a key can never
// reproduce a revision a concurrent reader already captured.
func (s *DynamoStore) marshalItem(collection, id string, doc any, createdAt time.Time, version int64) (map[string]types.AttributeValue, error) {
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

// Get loads one document. Returns ErrNotFound when the key is absent.
func (s *DynamoStore) Get(ctx context.Context, collection, id string, out any) error {
	res, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       s.key(collection, id),
	})
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	if len(res.Item) == 0 {
		return ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	return nil
}

// Insert writes doc under a store-assigned id and creation timestamp.
func (s *DynamoStore) Insert(ctx context.Context, collection string, doc any) (string, time.Time, error) {
	id := s.newID()
	createdAt := s.nowFunc().UTC()

	item, err := s.marshalItem(collection, id, doc, createdAt, s.newRev())
	if err != nil {
		return "", time.Time{}, err
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("put item: %w", err)
	}
	return id, createdAt, nil
}

// Put writes doc under a caller-chosen id, replacing any existing document.
func (s *DynamoStore) Put(ctx context.Context, collection, id string, doc any) error {
	item, err := s.marshalItem(collection, id, doc, s.nowFunc(), s.newRev())
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// Create writes doc only if no document exists at (collection, id).
func (s *DynamoStore) Create(ctx context.Context, collection, id string, doc any) error {
	item, err := s.marshalItem(collection, id, doc, s.nowFunc(), s.newRev())
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: strptr("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": attrID,
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return ErrExists
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// isConditionFailure recognizes a failed ConditionExpression whether the SDK
// surfaces it as the modeled exception or as a generic API error.
func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

// Update applies a partial field update and stamps a fresh revision.
func (s *DynamoStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.update(ctx, collection, id, fields, nil)
}

// UpdateWhere applies a partial field update only while the condition field
// still holds its expected value.
func (s *DynamoStore) UpdateWhere(ctx context.Context, collection, id string, fields map[string]any, cond Predicate) error {
	if cond.Op != OpEqual {
		return fmt.Errorf("unsupported condition op %q", cond.Op)
	}
	return s.update(ctx, collection, id, fields, &cond)
}

func (s *DynamoStore) update(ctx context.Context, collection, id string, fields map[string]any, cond *Predicate) error {
	names := map[string]string{
		"#id":  attrID,
		"#ver": attrVersion,
	}
	values := map[string]types.AttributeValue{
		":rev": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", s.newRev())},
	}

	expr := "SET #ver = :rev"
	i := 0
	for field, value := range fields {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal field %s: %w", field, err)
		}
		nameAlias := fmt.Sprintf("#f%d", i)
		valueAlias := fmt.Sprintf(":v%d", i)
		names[nameAlias] = field
		values[valueAlias] = av
		expr += fmt.Sprintf(", %s = %s", nameAlias, valueAlias)
		i++
	}

	condition := "attribute_exists(#id)"
	if cond != nil {
		av, err := attributevalue.Marshal(cond.Value)
		if err != nil {
			return fmt.Errorf("marshal condition value: %w", err)
		}
		names["#cond"] = cond.Field
		values[":cond"] = av
		condition += " AND #cond = :cond"
	}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       s.key(collection, id),
		UpdateExpression:          &expr,
		ConditionExpression:       &condition,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		if isConditionFailure(err) {
			if cond != nil {
				return ErrConditionFailed
			}
			return ErrNotFound
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// Delete removes one document. Absent documents are not an error.
func (s *DynamoStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key:       s.key(collection, id),
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// Query returns all documents of a collection matching the predicates,
// decoded into out (a pointer to a slice). Pagination is followed until the
// collection is exhausted.
func (s *DynamoStore) Query(ctx context.Context, collection string, out any, preds ...Predicate) error {
	names := map[string]string{"#coll": attrCollection}
	values := map[string]types.AttributeValue{
		":coll": &types.AttributeValueMemberS{Value: collection},
	}

	var filter string
	for i, p := range preds {
		av, err := attributevalue.Marshal(p.Value)
		if err != nil {
			return fmt.Errorf("marshal predicate value for %s: %w", p.Field, err)
		}
		nameAlias := fmt.Sprintf("#p%d", i)
		valueAlias := fmt.Sprintf(":p%d", i)
		names[nameAlias] = p.Field
		values[valueAlias] = av

		var clause string
		switch p.Op {
		case OpEqual:
			clause = fmt.Sprintf("%s = %s", nameAlias, valueAlias)
		case OpArrayContains:
			clause = fmt.Sprintf("contains(%s, %s)", nameAlias, valueAlias)
		default:
			return fmt.Errorf("unsupported predicate op %q", p.Op)
		}
		if filter != "" {
			filter += " AND "
		}
		filter += clause
	}

	input := &dyn.QueryInput{
		TableName:                 &s.tableName,
		KeyConditionExpression:    strptr("#coll = :coll"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
	if filter != "" {
		input.FilterExpression = &filter
	}

	var items []map[string]types.AttributeValue
	for {
		res, err := s.client.Query(ctx, input)
		if err != nil {
			return fmt.Errorf("query collection %s: %w", collection, err)
		}
		items = append(items, res.Items...)
		if len(res.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = res.LastEvaluatedKey
	}

	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("unmarshal query result: %w", err)
	}
	return nil
}

// BatchDelete removes the referenced documents in a single all-or-nothing
// transaction.
func (s *DynamoStore) BatchDelete(ctx context.Context, refs []Ref) error {
	if len(refs) == 0 {
		return nil
	}
	ops := make([]TxOp, 0, len(refs))
	for _, ref := range refs {
		ops = append(ops, TxOp{Kind: TxDelete, Ref: ref})
	}
	return s.Transact(ctx, ops)
}

// Transact applies all ops in one TransactWriteItems call. A failed condition
// on any op cancels the whole batch and returns ErrTxConflict.
func (s *DynamoStore) Transact(ctx context.Context, ops []TxOp) error {
	if len(ops) == 0 {
		return nil
	}

	items := make([]types.TransactWriteItem, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case TxCreate, TxPut:
			item, err := s.marshalItem(op.Ref.Collection, op.Ref.ID, op.Doc, s.nowFunc(), s.newRev())
			if err != nil {
				return err
			}
			put := &types.Put{
				TableName: &s.tableName,
				Item:      item,
			}
			if op.Kind == TxCreate {
				put.ConditionExpression = strptr("attribute_not_exists(#id)")
				put.ExpressionAttributeNames = map[string]string{"#id": attrID}
			}
			items = append(items, types.TransactWriteItem{Put: put})
		case TxDelete:
			del := &types.Delete{
				TableName: &s.tableName,
				Key:       s.key(op.Ref.Collection, op.Ref.ID),
			}
			if op.ExpectVersion > 0 {
				del.ConditionExpression = strptr("#ver = :ver")
				del.ExpressionAttributeNames = map[string]string{"#ver": attrVersion}
				del.ExpressionAttributeValues = map[string]types.AttributeValue{
					":ver": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", op.ExpectVersion)},
				}
			}
			items = append(items, types.TransactWriteItem{Delete: del})
		default:
			return fmt.Errorf("unsupported tx op kind %q", op.Kind)
		}
	}

	_, err := s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("%w: %s", ErrTxConflict, err)
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "TransactionCanceledException" {
			return fmt.Errorf("%w: %s", ErrTxConflict, err)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

func strptr(s string) *string { return &s }
