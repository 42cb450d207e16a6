package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/phone-otp-auth/internal/domain"
)

// Lookup item key prefixes. Lookup items share the users table and map a
// phone number or email to its userId, so uniqueness checks are strongly
// consistent GetItem calls instead of GSI queries.
const (
	phoneLookupPrefix = "phone#"
	emailLookupPrefix = "email#"
)

// UserRepo provides typed DynamoDB operations for the users table.
// PK: id. User items are keyed by decimal userId, lookup items by
// "phone#<number>" and "email#<address>".
type UserRepo struct {
	client    API
	tableName string
}

func NewUserRepo(client API, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

// Put writes the user and both lookup items in one transaction.
func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	if u.DocID == "" {
		u.DocID = domain.UserDocID(u.UserID)
	}
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: aws.String(r.tableName), Item: item}},
			{Put: &types.Put{TableName: aws.String(r.tableName), Item: lookupItem(phoneLookupPrefix+u.PhoneNumber, u.UserID)}},
			{Put: &types.Put{TableName: aws.String(r.tableName), Item: lookupItem(emailLookupPrefix+u.Email, u.UserID)}},
		},
	})
	if err != nil {
		return fmt.Errorf("put user %d: %w", u.UserID, err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, userID int64) (*domain.User, error) {
	item, err := r.getItem(ctx, domain.UserDocID(userID))
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	if item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(item, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	return r.getByLookup(ctx, phoneLookupPrefix+phoneNumber)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getByLookup(ctx, emailLookupPrefix+email)
}

func (r *UserRepo) getByLookup(ctx context.Context, lookupID string) (*domain.User, error) {
	item, err := r.getItem(ctx, lookupID)
	if err != nil {
		return nil, fmt.Errorf("get lookup %s: %w", lookupID, err)
	}
	if item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	n, ok := item[attrUserID].(*types.AttributeValueMemberN)
	if !ok {
		return nil, fmt.Errorf("lookup %s has no %s", lookupID, attrUserID)
	}
	userID, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lookup %s: %w", lookupID, err)
	}
	return r.Get(ctx, userID)
}

func (r *UserRepo) getItem(ctx context.Context, id string) (map[string]types.AttributeValue, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(attrID, id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	return out.Item, nil
}

func lookupItem(id string, userID int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID:     &types.AttributeValueMemberS{Value: id},
		attrUserID: &types.AttributeValueMemberN{Value: strconv.FormatInt(userID, 10)},
	}
}
