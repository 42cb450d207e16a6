package redisinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phone-otp-auth/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pendingVerifications:"

// VerificationRepo keeps one pending verification per phone number as a JSON
// value whose key expires together with the OTP.
type VerificationRepo struct {
	client *redis.Client
	now    func() time.Time
}

func NewVerificationRepo(client *redis.Client) *VerificationRepo {
	return &VerificationRepo{client: client, now: time.Now}
}

func key(phoneNumber string) string { return keyPrefix + phoneNumber }

func (r *VerificationRepo) Put(ctx context.Context, v *domain.PendingVerification) error {
	ttl := time.Unix(v.ExpiresAt, 0).Sub(r.now())
	if ttl <= 0 {
		return r.clear(ctx, v.PhoneNumber)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	if err := r.client.Set(ctx, key(v.PhoneNumber), b, ttl).Err(); err != nil {
		return fmt.Errorf("put verification: %w", err)
	}
	return nil
}

func (r *VerificationRepo) Get(ctx context.Context, phoneNumber string) (*domain.PendingVerification, error) {
	b, err := r.client.Get(ctx, key(phoneNumber)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get verification: %w", err)
	}
	var v domain.PendingVerification
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("unmarshal verification: %w", err)
	}
	return &v, nil
}

func (r *VerificationRepo) clear(ctx context.Context, phoneNumber string) error {
	if err := r.client.Del(ctx, key(phoneNumber)).Err(); err != nil {
		return fmt.Errorf("delete verification: %w", err)
	}
	return nil
}
