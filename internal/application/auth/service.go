package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phone-otp-auth/internal/domain"
	"github.com/phone-otp-auth/internal/pkg/otp"
	"github.com/phone-otp-auth/internal/pkg/validate"
)

// Workflow errors. Each wraps the domain sentinel the transport maps to a status.
var (
	ErrMissingFields      = fmt.Errorf("missing required fields: %w", domain.ErrBadRequest)
	ErrPhoneRequired      = fmt.Errorf("phone number is required: %w", domain.ErrBadRequest)
	ErrPhoneRegistered    = fmt.Errorf("phone number already registered: %w", domain.ErrConflict)
	ErrEmailRegistered    = fmt.Errorf("email already registered: %w", domain.ErrConflict)
	ErrPhoneNotRegistered = fmt.Errorf("phone number not registered: %w", domain.ErrNotFound)
)

type RegisterRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	FullName    string `json:"fullName" validate:"required"`
	Email       string `json:"email" validate:"required"`
}

type LoginRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

// Result is what both workflows hand back to the caller.
type Result struct {
	UserID int64
	OTP    string
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Result, error)
	Login(ctx context.Context, req LoginRequest) (*Result, error)
}

type userStore interface {
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
}

type idAllocator interface {
	NextUserID(ctx context.Context) (int64, error)
}

type otpLedger interface {
	Store(ctx context.Context, phoneNumber, otp string) (*domain.PendingVerification, error)
}

type ServiceDeps struct {
	UserRepo    userStore
	Allocator   idAllocator
	Ledger      otpLedger
	GenerateOTP func() (string, error) // defaults to otp.Generate
	Logger      *slog.Logger
	Now         func() time.Time
}

type service struct {
	users       userStore
	allocator   idAllocator
	ledger      otpLedger
	generateOTP func() (string, error)
	log         *slog.Logger
	now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		users:       deps.UserRepo,
		allocator:   deps.Allocator,
		ledger:      deps.Ledger,
		generateOTP: deps.GenerateOTP,
		log:         deps.Logger,
		now:         deps.Now,
	}
	if s.generateOTP == nil {
		s.generateOTP = otp.Generate
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Register creates a user and issues its first OTP.
//
// The uniqueness checks, the id allocation and the writes are separate store
// operations. Two concurrent registrations with the same phone number or email
// can both pass the checks and end up as two users with different ids.
// Sequential repeats are always rejected; user stores must answer GetByPhone
// and GetByEmail with strongly consistent reads.
// Nothing written before a failing step is rolled back.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*Result, error) {
	if err := validate.Struct(req); err != nil {
		return nil, ErrMissingFields
	}
	log := s.log.With("phone", req.PhoneNumber)
	log.InfoContext(ctx, "processing register request")

	if err := s.ensureAbsent(ctx, s.users.GetByPhone, req.PhoneNumber, ErrPhoneRegistered); err != nil {
		return nil, err
	}
	if err := s.ensureAbsent(ctx, s.users.GetByEmail, req.Email, ErrEmailRegistered); err != nil {
		return nil, err
	}

	userID, err := s.allocator.NextUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate user id: %w", err)
	}
	log.InfoContext(ctx, "allocated user id", "user_id", userID)

	code, err := s.issueOTP(ctx, log, req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		DocID:       domain.UserDocID(userID),
		UserID:      userID,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}
	log.InfoContext(ctx, "stored user", "user_id", userID)

	return &Result{UserID: userID, OTP: code}, nil
}

// Login issues a fresh OTP for an already registered phone number.
func (s *service) Login(ctx context.Context, req LoginRequest) (*Result, error) {
	if err := validate.Struct(req); err != nil {
		return nil, ErrPhoneRequired
	}
	log := s.log.With("phone", req.PhoneNumber)

	u, err := s.users.GetByPhone(ctx, req.PhoneNumber)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrPhoneNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("look up phone: %w", err)
	}

	code, err := s.issueOTP(ctx, log, req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	return &Result{UserID: u.UserID, OTP: code}, nil
}

func (s *service) ensureAbsent(ctx context.Context, lookup func(context.Context, string) (*domain.User, error), value string, conflict error) error {
	_, err := lookup(ctx, value)
	if err == nil {
		return conflict
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check existing user: %w", err)
	}
	return nil
}

// issueOTP generates a code and makes it the pending verification for phone.
func (s *service) issueOTP(ctx context.Context, log *slog.Logger, phoneNumber string) (string, error) {
	code, err := s.generateOTP()
	if err != nil {
		return "", err
	}
	v, err := s.ledger.Store(ctx, phoneNumber, code)
	if err != nil {
		return "", err
	}
	log.InfoContext(ctx, "stored otp", "issue_id", v.IssueID, "expires_at", v.ExpiresAt)
	return code, nil
}
