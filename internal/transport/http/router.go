package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phone-otp-auth/internal/application/auth"
	"github.com/phone-otp-auth/internal/application/verification"
	"github.com/phone-otp-auth/internal/config"
	"github.com/phone-otp-auth/internal/domain"
	"github.com/phone-otp-auth/internal/transport/http/handler"
	appmiddleware "github.com/phone-otp-auth/internal/transport/http/middleware"
)

// UserStore is the user collection as seen by the registration workflow.
type UserStore interface {
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
}

// IDAllocator hands out user ids.
type IDAllocator interface {
	NextUserID(ctx context.Context) (int64, error)
}

// VerificationStore persists pending verifications keyed by phone number.
type VerificationStore interface {
	Put(ctx context.Context, v *domain.PendingVerification) error
	Get(ctx context.Context, phoneNumber string) (*domain.PendingVerification, error)
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         UserStore
	Allocator        IDAllocator
	VerificationRepo VerificationStore
	OTPTTL           time.Duration
	Logger           *slog.Logger
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.MethodNotAllowed(appmiddleware.MethodNotAllowed)
	r.NotFound(appmiddleware.NotFound)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ledger := verification.NewLedger(deps.VerificationRepo, deps.OTPTTL)
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:  deps.UserRepo,
		Allocator: deps.Allocator,
		Ledger:    ledger,
		Logger:    logger,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, logger)

	r.Get("/health-check/{action}", healthH.Ping)
	r.Post("/register", authH.Register)
	r.Post("/login", authH.Login)

	return r
}
