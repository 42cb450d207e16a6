package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/phone-otp-auth/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepo stores users keyed by the decimal userId.
type UserRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(coll *mongo.Collection) *UserRepo {
	return &UserRepo{coll: coll}
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	if u.DocID == "" {
		u.DocID = domain.UserDocID(u.UserID)
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{fieldID: u.DocID}, u, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put user %d: %w", u.UserID, err)
	}
	return nil
}

func (r *UserRepo) GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{fieldPhoneNumber: phoneNumber})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{fieldEmail: email})
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var u domain.User
	err := r.coll.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}
