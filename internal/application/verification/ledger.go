// Package verification is the ledger of pending OTP verifications: at most one
// live OTP per phone number, each with a fixed time-to-live.
package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/phone-otp-auth/internal/domain"
	"github.com/phone-otp-auth/internal/pkg/id"
)

// DefaultTTL is how long an issued OTP stays valid.
const DefaultTTL = 10 * time.Minute

type verificationStore interface {
	Put(ctx context.Context, v *domain.PendingVerification) error
	Get(ctx context.Context, phoneNumber string) (*domain.PendingVerification, error)
}

// Ledger writes and reads pending verifications.
type Ledger struct {
	store verificationStore
	ttl   time.Duration
	now   func() time.Time
	newID func() string
}

// NewLedger returns a Ledger over store. A non-positive ttl means DefaultTTL.
func NewLedger(store verificationStore, ttl time.Duration) *Ledger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Ledger{store: store, ttl: ttl, now: time.Now, newID: id.New}
}

// Store records otp as the pending verification for phoneNumber, replacing
// any earlier one. Store errors are returned as is; there is no retry.
func (l *Ledger) Store(ctx context.Context, phoneNumber, otp string) (*domain.PendingVerification, error) {
	now := l.now().UTC()
	v := &domain.PendingVerification{
		PhoneNumber: phoneNumber,
		OTP:         otp,
		IssueID:     l.newID(),
		ExpiresAt:   now.Add(l.ttl).Unix(),
		CreatedAt:   now,
	}
	if err := l.store.Put(ctx, v); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}
	return v, nil
}

// Pending returns the live verification for phoneNumber. An expired record is
// reported as domain.ErrNotFound even if the backend has not purged it yet.
func (l *Ledger) Pending(ctx context.Context, phoneNumber string) (*domain.PendingVerification, error) {
	v, err := l.store.Get(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}
	if v.Expired(l.now()) {
		return nil, fmt.Errorf("otp expired: %w", domain.ErrNotFound)
	}
	return v, nil
}
