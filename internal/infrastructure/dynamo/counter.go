package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/phone-otp-auth/internal/domain"
)

// CounterRepo allocates user identifiers from the metadata/userCounter document.
//
// Each allocation reads the counter with a consistent read and writes lastId+1
// back under a condition on the value it read. A concurrent writer makes the
// condition fail and the read-modify-write is re-executed, so two callers can
// never receive the same identifier.
type CounterRepo struct {
	client      API
	tableName   string
	maxAttempts int
}

func NewCounterRepo(client API, tableName string, maxAttempts int) *CounterRepo {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &CounterRepo{client: client, tableName: tableName, maxAttempts: maxAttempts}
}

// NextUserID returns the next identifier: 1 when the counter does not exist yet,
// lastId+1 otherwise.
func (r *CounterRepo) NextUserID(ctx context.Context) (int64, error) {
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		current, found, err := r.read(ctx)
		if err != nil {
			return 0, err
		}
		next := current + 1
		err = r.write(ctx, next, current, found)
		if err == nil {
			return next, nil
		}
		if !isConditionFailed(err) {
			return 0, fmt.Errorf("update user counter: %w", err)
		}
		slog.Debug("user counter changed concurrently, retrying", "attempt", attempt, "read_last_id", current)
	}
	return 0, fmt.Errorf("allocate user id after %d attempts: %w", r.maxAttempts, domain.ErrContention)
}

func (r *CounterRepo) read(ctx context.Context) (int64, bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(attrID, domain.UserCounterID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, false, fmt.Errorf("read user counter: %w", err)
	}
	if out.Item == nil {
		return 0, false, nil
	}
	var c domain.UserCounter
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return 0, false, fmt.Errorf("unmarshal user counter: %w", err)
	}
	return c.LastID, true, nil
}

func (r *CounterRepo) write(ctx context.Context, next, prev int64, exists bool) error {
	item, err := attributevalue.MarshalMap(domain.UserCounter{ID: domain.UserCounterID, LastID: next})
	if err != nil {
		return fmt.Errorf("marshal user counter: %w", err)
	}
	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	}
	if exists {
		input.ConditionExpression = aws.String("#last = :prev")
		input.ExpressionAttributeNames = map[string]string{"#last": attrLastID}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":prev": &types.AttributeValueMemberN{Value: strconv.FormatInt(prev, 10)},
		}
	} else {
		input.ConditionExpression = aws.String("attribute_not_exists(#id)")
		input.ExpressionAttributeNames = map[string]string{"#id": attrID}
	}
	_, err = r.client.PutItem(ctx, input)
	return err
}
