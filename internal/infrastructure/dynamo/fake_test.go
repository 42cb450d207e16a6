package dynamo

import (
	"context"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type item = map[string]types.AttributeValue

// fakeDynamo is an in-memory stand-in for the DynamoDB operations the repos use.
// It understands exactly the expressions this package writes.
type fakeDynamo struct {
	mu      sync.Mutex
	keys    map[string]string // table -> hash key attribute
	tables  map[string]map[string]item
	ttl     map[string]string
	created []string

	errGet error
	errPut error

	gets []*dynamodb.GetItemInput

	// beforePut runs ahead of every PutItem, outside the lock.
	beforePut func(in *dynamodb.PutItemInput)
}

func newFakeDynamo(keys map[string]string) *fakeDynamo {
	return &fakeDynamo{
		keys:   keys,
		tables: make(map[string]map[string]item),
		ttl:    make(map[string]string),
	}
}

func (f *fakeDynamo) table(name string) map[string]item {
	t, ok := f.tables[name]
	if !ok {
		t = make(map[string]item)
		f.tables[name] = t
	}
	return t
}

func keyValue(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	}
	return ""
}

func (f *fakeDynamo) set(tableName string, it item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table(tableName)[keyValue(it[f.keys[tableName]])] = it
}

func (f *fakeDynamo) count(tableName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[tableName])
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	f.gets = append(f.gets, in)
	f.mu.Unlock()
	if f.errGet != nil {
		return nil, f.errGet
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tableName := aws.ToString(in.TableName)
	it := f.table(tableName)[keyValue(in.Key[f.keys[tableName]])]
	return &dynamodb.GetItemOutput{Item: it}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.beforePut != nil {
		f.beforePut(in)
	}
	if f.errPut != nil {
		return nil, f.errPut
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tableName := aws.ToString(in.TableName)
	k := keyValue(in.Item[f.keys[tableName]])
	existing := f.table(tableName)[k]
	if cond := aws.ToString(in.ConditionExpression); cond != "" {
		if !f.conditionHolds(cond, in.ExpressionAttributeNames, in.ExpressionAttributeValues, existing) {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	f.table(tableName)[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) conditionHolds(cond string, names map[string]string, values map[string]types.AttributeValue, existing item) bool {
	if strings.HasPrefix(cond, "attribute_not_exists(") {
		return existing == nil
	}
	// "#name = :value"
	parts := strings.Fields(cond)
	if existing == nil || len(parts) != 3 {
		return false
	}
	return keyValue(existing[names[parts[0]]]) == keyValue(values[parts[2]])
}

// TransactWriteItems applies Put entries all-or-nothing. errPut fails the whole batch.
func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	if f.errPut != nil {
		return nil, f.errPut
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ti := range in.TransactItems {
		tableName := aws.ToString(ti.Put.TableName)
		f.table(tableName)[keyValue(ti.Put.Item[f.keys[tableName]])] = ti.Put.Item
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeDynamo) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	if _, ok := f.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("table exists")}
	}
	f.table(name)
	f.created = append(f.created, name)
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamo) UpdateTimeToLive(_ context.Context, in *dynamodb.UpdateTimeToLiveInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttl[aws.ToString(in.TableName)] = aws.ToString(in.TimeToLiveSpecification.AttributeName)
	return &dynamodb.UpdateTimeToLiveOutput{}, nil
}
