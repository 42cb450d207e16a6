package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phone-otp-auth/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CounterRepo allocates user identifiers with an atomic $inc on the
// metadata/userCounter document. The upsert creates the counter at 1 on first use.
type CounterRepo struct {
	coll        *mongo.Collection
	maxAttempts int
}

func NewCounterRepo(coll *mongo.Collection, maxAttempts int) *CounterRepo {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &CounterRepo{coll: coll, maxAttempts: maxAttempts}
}

func (r *CounterRepo) NextUserID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		var c domain.UserCounter
		err := r.coll.FindOneAndUpdate(ctx,
			bson.M{fieldID: domain.UserCounterID},
			bson.M{"$inc": bson.M{fieldLastID: int64(1)}},
			opts,
		).Decode(&c)
		if err == nil {
			return c.LastID, nil
		}
		// Two first-ever upserts can collide on _id; the loser retries as an update.
		if !mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("increment user counter: %w", err)
		}
		slog.Debug("user counter upsert collided, retrying", "attempt", attempt)
	}
	return 0, fmt.Errorf("allocate user id after %d attempts: %w", r.maxAttempts, domain.ErrContention)
}
