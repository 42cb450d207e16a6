package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/phone-otp-auth/internal/config"
	"github.com/phone-otp-auth/internal/domain"
	"github.com/phone-otp-auth/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	mu    sync.Mutex
	users []*domain.User
}

func (m *memUsers) find(match func(*domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.PhoneNumber == phone })
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Email == email })
}

func (m *memUsers) Put(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u)
	return nil
}

type memCounter struct {
	mu   sync.Mutex
	last int64
}

func (c *memCounter) NextUserID(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last++
	return c.last, nil
}

type memVerifications struct {
	mu      sync.Mutex
	pending map[string]*domain.PendingVerification
}

func (m *memVerifications) Put(_ context.Context, v *domain.PendingVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[v.PhoneNumber] = v
	return nil
}

func (m *memVerifications) Get(_ context.Context, phone string) (*domain.PendingVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.pending[phone]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func newTestServer(t *testing.T) (*httptest.Server, *memVerifications) {
	t.Helper()
	ledger := &memVerifications{pending: map[string]*domain.PendingVerification{}}
	cfg := &config.Config{AllowedOrigins: []string{"*"}}
	h := NewRouter(cfg, &Deps{
		UserRepo:         &memUsers{},
		Allocator:        &memCounter{},
		VerificationRepo: ledger,
		Logger:           logging.Discard(),
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, ledger
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

const aliceBody = `{"phoneNumber":"+15550001","fullName":"Alice A","email":"a@example.com"}`

func TestRouter_RegisterThenDuplicate(t *testing.T) {
	srv, ledger := newTestServer(t)

	status, body := do(t, srv, http.MethodPost, "/register", aliceBody)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OTP generated", body["message"])
	assert.EqualValues(t, 1, body["userId"])
	otp, _ := body["otp"].(string)
	assert.Regexp(t, `^[0-9]{6}$`, otp)

	pending, err := ledger.Get(context.Background(), "+15550001")
	require.NoError(t, err)
	assert.Equal(t, otp, pending.OTP)

	status, body = do(t, srv, http.MethodPost, "/register", aliceBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Phone number already registered", body["error"])
}

func TestRouter_LoginFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := do(t, srv, http.MethodPost, "/login", `{"phoneNumber":"+15559999"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Phone number not registered", body["error"])

	status, _ = do(t, srv, http.MethodPost, "/register", aliceBody)
	require.Equal(t, http.StatusOK, status)

	status, body = do(t, srv, http.MethodPost, "/login", `{"phoneNumber":"+15550001"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["userId"])

	status, body = do(t, srv, http.MethodPost, "/login", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Phone number is required", body["error"])
}

func TestRouter_WrongMethod(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/register", "/login"} {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			status, body := do(t, srv, method, path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, status, "%s %s", method, path)
			assert.Equal(t, "Method not allowed", body["error"])
		}
	}
}

func TestRouter_UnknownPath(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := do(t, srv, http.MethodPost, "/signup", aliceBody)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found", body["error"])
}

func TestRouter_HealthCheck(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := do(t, srv, http.MethodGet, "/health-check/ping", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pong", body["message"])

	status, _ = do(t, srv, http.MethodGet, "/health-check/other", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouter_CORS(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/register", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err = http.NewRequest(http.MethodPost, srv.URL+"/register", strings.NewReader(aliceBody))
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_CORSAllowsAnyRequestedHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, header := range []string{"Content-Type", "Authorization", "X-Requested-With"} {
		req, err := http.NewRequest(http.MethodOptions, srv.URL+"/login", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", header)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"), header)
		assert.Equal(t, header, resp.Header.Get("Access-Control-Allow-Headers"), header)
	}
}
