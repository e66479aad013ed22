package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/yndnr/fintrack-go/internal/core/domain"
	"github.com/yndnr/fintrack-go/internal/gateway"
	"github.com/yndnr/fintrack-go/internal/telemetry/logger"
	"github.com/yndnr/fintrack-go/internal/telemetry/metric"
)

// AuthGateway is the remote auth surface.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (*gateway.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*gateway.RefreshResponse, error)
	ChangePassword(ctx context.Context, accessToken, current, next string) error
	UpdateProfile(ctx context.Context, accessToken string, patch domain.ProfilePatch) (*gateway.ProfileResponse, error)
}

// CredentialStore persists the credential record.
type CredentialStore interface {
	// Write replaces all three fields together.
	Write(ctx context.Context, rec *domain.CredentialRecord) error

	// Read returns nil when the record is incomplete.
	Read(ctx context.Context) (*domain.CredentialRecord, error)

	// Clear removes the record. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Operation names, used for logging and metrics.
const (
	opRestore        = "restore"
	opLogin          = "login"
	opLogout         = "logout"
	opRefresh        = "refresh"
	opChangePassword = "change_password"
	opUpdateProfile  = "update_profile"
)

// errOvertaken marks a response discarded because a logout happened while
// its request was in flight.
var errOvertaken = errors.New("logged out while the request was in flight")

// SessionManager owns the in-memory session and the credential record.
type SessionManager struct {
	gateway AuthGateway
	store   CredentialStore
	logger  logger.Logger
	metrics *metric.Registry

	mu      sync.Mutex
	session *domain.Session
	// epoch is bumped by every logout. A response is applied only if the
	// epoch it started under is still current.
	epoch uint64

	inFlight atomic.Bool
	// pending tracks gateway calls whose caller may have stopped waiting.
	pending sync.WaitGroup
}

// ManagerOption configures a SessionManager.
type ManagerOption func(*SessionManager)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) ManagerOption {
	return func(m *SessionManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics records operation outcomes into r.
func WithMetrics(r *metric.Registry) ManagerOption {
	return func(m *SessionManager) {
		m.metrics = r
	}
}

// NewSessionManager creates a logged-out session manager.
// Call Restore to pick up a persisted session.
func NewSessionManager(gw AuthGateway, store CredentialStore, opts ...ManagerOption) *SessionManager {
	m := &SessionManager{
		gateway: gw,
		store:   store,
		logger:  logger.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "session")
	if m.metrics != nil {
		m.metrics.SetLoggedIn(false)
	}
	return m
}

// ============================================================================
// Read-only accessors
// ============================================================================

// CurrentIdentity returns a copy of the cached identity, or nil when logged out.
func (m *SessionManager) CurrentIdentity() *domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil
	}
	return m.session.Identity.Clone()
}

// CurrentSession returns a copy of the session, or nil when logged out.
func (m *SessionManager) CurrentSession() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.session.Clone()
}

// State returns the lifecycle state.
func (m *SessionManager) State() domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return domain.StateLoggedOut
	}
	return domain.StateLoggedIn
}

// snapshot returns the current session and epoch.
func (m *SessionManager) snapshot() (*domain.Session, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.session.Clone(), m.epoch
}

// ============================================================================
// Restore and Logout
// ============================================================================

// Restore loads the persisted session. It returns nil, nil when no complete
// record exists. A corrupt record is cleared and its error returned.
func (m *SessionManager) Restore(ctx context.Context) (*domain.Session, error) {
	rec, err := m.store.Read(ctx)
	if err != nil {
		m.record(opRestore, err)
		if errors.Is(err, domain.ErrCredentialCorrupt) {
			m.logger.Error("credential record corrupt, clearing", "error", err)
			if cerr := m.store.Clear(ctx); cerr != nil {
				m.logger.Error("clear corrupt credential record failed", "error", cerr)
			}
		}
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec == nil {
		m.session = nil
		m.setLoggedIn(false)
		m.record(opRestore, nil)
		return nil, nil
	}

	m.session = rec.Session()
	m.setLoggedIn(true)
	m.record(opRestore, nil)
	m.logger.Info("session restored", "user_id", string(m.session.Identity.ID))
	return m.session.Clone(), nil
}

// Wait blocks until every gateway call has applied its result, including
// calls whose caller stopped waiting, or until ctx is done. Call it before
// closing the credential store.
func (m *SessionManager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Logout discards the session locally. It never contacts the server and is
// idempotent. Memory is cleared even when the store fails; the store error
// is returned. Any token-mutating call still in flight has its response
// discarded.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	wasLoggedIn := m.session != nil
	m.session = nil
	m.epoch++
	m.setLoggedIn(false)

	err := m.store.Clear(context.WithoutCancel(ctx))
	m.record(opLogout, err)
	if err != nil {
		m.logger.Error("clear credential record failed", "error", err)
		return err
	}
	if wasLoggedIn {
		m.logger.Info("logged out")
	}
	return nil
}

// forceLogout ends the session after the server rejected its refresh token.
// It does nothing if a logout already ended the session it started under.
func (m *SessionManager) forceLogout(ctx context.Context, epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		return
	}
	m.session = nil
	m.epoch++
	m.setLoggedIn(false)

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("clear credential record after rejected refresh failed", "error", err)
	}
	m.logger.Warn("refresh token rejected, session ended")
}

// commit persists next and then makes it the in-memory session. Nothing
// changes if the write fails or a logout overtook the request.
func (m *SessionManager) commit(ctx context.Context, epoch uint64, next *domain.Session, rotation string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		return nil, domain.ErrUnauthenticated.WithCause(errOvertaken)
	}
	if err := m.store.Write(ctx, next.Record()); err != nil {
		m.logger.Error("persist session failed", "error", err)
		return nil, err
	}

	m.session = next
	m.setLoggedIn(true)
	if rotation != "" && m.metrics != nil {
		m.metrics.RecordRotation(rotation)
	}
	return next.Clone(), nil
}

// ============================================================================
// Metrics helpers
// ============================================================================

func (m *SessionManager) setLoggedIn(v bool) {
	if m.metrics != nil {
		m.metrics.SetLoggedIn(v)
	}
}

func (m *SessionManager) record(op string, err error) {
	if m.metrics == nil {
		return
	}
	switch {
	case err == nil:
		m.metrics.RecordOperation(op, metric.ResultSuccess)
	case errors.Is(err, domain.ErrSessionBusy):
		m.metrics.RecordOperation(op, metric.ResultBusy)
	case errors.Is(err, errOvertaken):
		m.metrics.RecordOperation(op, metric.ResultStale)
	default:
		m.metrics.RecordOperation(op, metric.ResultError)
	}
}
