package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/phone-otp-auth/internal/application/auth"
)

const maxBodyBytes = 100 << 10

// AuthHandler serves the register and login endpoints.
type AuthHandler struct {
	svc auth.Service
	log *slog.Logger
}

func NewAuthHandler(svc auth.Service, log *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.Register(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, OTPEnvelope{Message: "OTP generated", UserID: res.UserID, OTP: res.OTP})
	case errors.Is(err, auth.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, auth.ErrPhoneRegistered):
		writeError(w, http.StatusBadRequest, "Phone number already registered")
	case errors.Is(err, auth.ErrEmailRegistered):
		writeError(w, http.StatusBadRequest, "Email already registered")
	default:
		h.log.ErrorContext(r.Context(), "register failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, MessageEnvelope{Error: "Server error", Details: err.Error()})
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, OTPEnvelope{Message: "OTP generated", UserID: res.UserID, OTP: res.OTP})
	case errors.Is(err, auth.ErrPhoneRequired):
		writeError(w, http.StatusBadRequest, "Phone number is required")
	case errors.Is(err, auth.ErrPhoneNotRegistered):
		writeError(w, http.StatusNotFound, "Phone number not registered")
	default:
		h.log.ErrorContext(r.Context(), "login failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

// decodeBody reads a JSON body into dst. An empty body leaves dst zeroed so the
// workflow reports the missing fields itself.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, "Invalid request body")
	return false
}
