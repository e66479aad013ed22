package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/yndnr/fintrack-go/internal/core/domain"
	"github.com/yndnr/fintrack-go/internal/gateway"
	"github.com/yndnr/fintrack-go/internal/storage"
	"github.com/yndnr/fintrack-go/internal/storage/memory"
	"github.com/yndnr/fintrack-go/internal/telemetry/logger"
	"github.com/yndnr/fintrack-go/internal/telemetry/metric"
)

// fakeGateway answers each call with the configured function.
type fakeGateway struct {
	login          func(ctx context.Context, email, password string) (*gateway.LoginResponse, error)
	refresh        func(ctx context.Context, refreshToken string) (*gateway.RefreshResponse, error)
	changePassword func(ctx context.Context, accessToken, current, next string) error
	updateProfile  func(ctx context.Context, accessToken string, patch domain.ProfilePatch) (*gateway.ProfileResponse, error)

	calls atomic.Int32
}

func (g *fakeGateway) Login(ctx context.Context, email, password string) (*gateway.LoginResponse, error) {
	g.calls.Add(1)
	return g.login(ctx, email, password)
}

func (g *fakeGateway) Refresh(ctx context.Context, refreshToken string) (*gateway.RefreshResponse, error) {
	g.calls.Add(1)
	return g.refresh(ctx, refreshToken)
}

func (g *fakeGateway) ChangePassword(ctx context.Context, accessToken, current, next string) error {
	g.calls.Add(1)
	return g.changePassword(ctx, accessToken, current, next)
}

func (g *fakeGateway) UpdateProfile(ctx context.Context, accessToken string, patch domain.ProfilePatch) (*gateway.ProfileResponse, error) {
	g.calls.Add(1)
	return g.updateProfile(ctx, accessToken, patch)
}

// loginOK returns a login handler issuing A1/R1 for user 1.
func loginOK(email string) func(context.Context, string, string) (*gateway.LoginResponse, error) {
	return func(context.Context, string, string) (*gateway.LoginResponse, error) {
		return &gateway.LoginResponse{
			AccessToken:  "A1",
			RefreshToken: "R1",
			User:         domain.Identity{ID: "1", Email: email, FirstName: "Ann", LastName: "Lee"},
		}, nil
	}
}

// faultyStore wraps a CredentialStore and fails on demand.
type faultyStore struct {
	CredentialStore

	mu       sync.Mutex
	writeErr error
	clearErr error
}

func (s *faultyStore) Write(ctx context.Context, rec *domain.CredentialRecord) error {
	s.mu.Lock()
	err := s.writeErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.CredentialStore.Write(ctx, rec)
}

func (s *faultyStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	err := s.clearErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.CredentialStore.Clear(ctx)
}

func (s *faultyStore) failWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

func (s *faultyStore) failClears(err error) {
	s.mu.Lock()
	s.clearErr = err
	s.mu.Unlock()
}

type fixture struct {
	manager *SessionManager
	gateway *fakeGateway
	store   *faultyStore
	engine  *memory.Store
	metrics *metric.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	engine := memory.New()
	t.Cleanup(func() { engine.Close() })

	store := &faultyStore{CredentialStore: storage.NewCredentialStore(engine)}
	gw := &fakeGateway{login: loginOK("a@x.com")}
	reg := metric.NewRegistry()

	m := NewSessionManager(gw, store, WithLogger(logger.Discard()), WithMetrics(reg))
	return &fixture{manager: m, gateway: gw, store: store, engine: engine, metrics: reg}
}

// loggedIn returns a fixture holding the A1/R1 session for a@x.com.
func loggedIn(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	if _, err := f.manager.Login(context.Background(), "a@x.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	f.gateway.calls.Store(0)
	return f
}

// stored reads the credential record straight from the store.
func (f *fixture) stored(t *testing.T) *domain.CredentialRecord {
	t.Helper()
	rec, err := f.store.Read(context.Background())
	if err != nil {
		t.Fatalf("store.Read() error = %v", err)
	}
	return rec
}
