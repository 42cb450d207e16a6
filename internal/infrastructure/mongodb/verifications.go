package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phone-otp-auth/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// pendingDoc stores expiresAt as a BSON date so the TTL index can act on it.
type pendingDoc struct {
	PhoneNumber string    `bson:"_id"`
	OTP         string    `bson:"otp"`
	IssueID     string    `bson:"issueId"`
	ExpiresAt   time.Time `bson:"expiresAt"`
	CreatedAt   time.Time `bson:"createdAt"`
}

// VerificationRepo manages pending verifications keyed by phone number.
type VerificationRepo struct {
	coll *mongo.Collection
}

func NewVerificationRepo(coll *mongo.Collection) *VerificationRepo {
	return &VerificationRepo{coll: coll}
}

func (r *VerificationRepo) Put(ctx context.Context, v *domain.PendingVerification) error {
	doc := pendingDoc{
		PhoneNumber: v.PhoneNumber,
		OTP:         v.OTP,
		IssueID:     v.IssueID,
		ExpiresAt:   time.Unix(v.ExpiresAt, 0).UTC(),
		CreatedAt:   v.CreatedAt,
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{fieldID: v.PhoneNumber}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put verification: %w", err)
	}
	return nil
}

func (r *VerificationRepo) Get(ctx context.Context, phoneNumber string) (*domain.PendingVerification, error) {
	var doc pendingDoc
	err := r.coll.FindOne(ctx, bson.M{fieldID: phoneNumber}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get verification: %w", err)
	}
	return &domain.PendingVerification{
		PhoneNumber: doc.PhoneNumber,
		OTP:         doc.OTP,
		IssueID:     doc.IssueID,
		ExpiresAt:   doc.ExpiresAt.Unix(),
		CreatedAt:   doc.CreatedAt,
	}, nil
}
