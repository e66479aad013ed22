package service

import (
	"context"
	"strings"
	"sync"

	"github.com/yndnr/fintrack-go/internal/core/domain"
	"github.com/yndnr/fintrack-go/internal/gateway"
	"github.com/yndnr/fintrack-go/internal/telemetry/metric"
)

// ============================================================================
// Token-mutating operations
// ============================================================================

// Login authenticates with email and password and replaces any current
// session. On failure the current session is left untouched.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("email and password are required")
	}

	return guarded(ctx, m, opLogin, func(ctx context.Context) (*domain.Session, error) {
		_, epoch := m.snapshot()

		resp, err := m.gateway.Login(ctx, email, password)
		if err != nil {
			m.logger.Warn("login rejected", "email", email, "code", domain.GetErrorCode(err))
			return nil, err
		}

		session, err := m.commit(ctx, epoch, sessionFromLogin(email, resp), metric.RotationLogin)
		if err != nil {
			return nil, err
		}
		m.logger.Info("logged in", "user_id", string(session.Identity.ID))
		return session, nil
	})
}

// Refresh exchanges the refresh token for a new access token. The current
// refresh token is kept when the server does not rotate it. A rejected
// refresh token ends the session; it is never retried.
func (m *SessionManager) Refresh(ctx context.Context) (*domain.Session, error) {
	if m.State() == domain.StateLoggedOut {
		return nil, domain.ErrUnauthenticated.WithDetails("refresh requires a session")
	}

	return guarded(ctx, m, opRefresh, func(ctx context.Context) (*domain.Session, error) {
		current, epoch := m.snapshot()
		if current == nil {
			return nil, domain.ErrUnauthenticated.WithDetails("refresh requires a session")
		}

		resp, err := m.gateway.Refresh(ctx, current.RefreshToken)
		if err != nil {
			if domain.IsDomainError(err, domain.ErrRefreshInvalid.Code) {
				m.forceLogout(ctx, epoch)
			} else {
				m.logger.Warn("refresh failed", "code", domain.GetErrorCode(err))
			}
			return nil, err
		}

		next := current.Clone()
		next.AccessToken = resp.AccessToken
		if resp.RefreshToken != "" {
			next.RefreshToken = resp.RefreshToken
		}

		session, err := m.commit(ctx, epoch, next, metric.RotationRefresh)
		if err != nil {
			return nil, err
		}
		m.logger.Info("tokens refreshed", "refresh_rotated", resp.RefreshToken != "")
		return session, nil
	})
}

// UpdateProfile changes the first and last name. When the server re-issues
// tokens, the new tokens and merged identity replace the session in one
// write. Otherwise only the identity changes and the stored tokens are
// rewritten unchanged.
func (m *SessionManager) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) (*domain.ProfileUpdateResult, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	patch.FirstName = strings.TrimSpace(patch.FirstName)
	patch.LastName = strings.TrimSpace(patch.LastName)

	if m.State() == domain.StateLoggedOut {
		return nil, domain.ErrUnauthenticated.WithDetails("profile update requires a session")
	}

	return guarded(ctx, m, opUpdateProfile, func(ctx context.Context) (*domain.ProfileUpdateResult, error) {
		current, epoch := m.snapshot()
		if current == nil {
			return nil, domain.ErrUnauthenticated.WithDetails("profile update requires a session")
		}

		resp, err := m.gateway.UpdateProfile(ctx, current.AccessToken, patch)
		if err != nil {
			m.logger.Warn("profile update rejected", "code", domain.GetErrorCode(err))
			return nil, err
		}

		next := current.Clone()
		next.Identity = mergeProfile(current.Identity, patch, resp.Data)

		if !resp.HasTokens() {
			session, err := m.commit(ctx, epoch, next, "")
			if err != nil {
				return nil, err
			}
			m.logger.Info("profile updated")
			return domain.IdentityOnlyResult(&session.Identity), nil
		}

		// A single re-issued token replaces only its own side.
		if resp.AccessToken != "" {
			next.AccessToken = resp.AccessToken
		}
		if resp.RefreshToken != "" {
			next.RefreshToken = resp.RefreshToken
		}
		session, err := m.commit(ctx, epoch, next, metric.RotationProfile)
		if err != nil {
			return nil, err
		}
		m.logger.Info("profile updated", "tokens_rotated", true)
		return domain.RotatedResult(session), nil
	})
}

// ChangePassword changes the account password. Tokens and the stored record
// are never touched: the server keeps the current session valid.
func (m *SessionManager) ChangePassword(ctx context.Context, current, next string) error {
	if current == "" || next == "" {
		return domain.ErrInvalidArgument.WithDetails("current and new password are required")
	}

	session, _ := m.snapshot()
	if session == nil {
		return domain.ErrUnauthenticated.WithDetails("password change requires a session")
	}

	_, err := await(ctx, &m.pending, func(ctx context.Context) (struct{}, error) {
		err := m.gateway.ChangePassword(ctx, session.AccessToken, current, next)
		m.record(opChangePassword, err)
		return struct{}{}, err
	})
	if err != nil {
		m.logger.Warn("password change rejected", "code", domain.GetErrorCode(err))
		return err
	}
	m.logger.Info("password changed")
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

// guarded runs fn under the in-flight guard. A second token-mutating call
// while one is outstanding fails with domain.ErrSessionBusy. The guard is
// released only after fn has applied its result.
func guarded[T any](ctx context.Context, m *SessionManager, op string, fn func(context.Context) (T, error)) (T, error) {
	if !m.inFlight.CompareAndSwap(false, true) {
		var zero T
		err := domain.ErrSessionBusy.WithDetails(op + " rejected: another session update is in flight")
		m.record(op, err)
		m.logger.Warn("session busy", "operation", op)
		return zero, err
	}

	return await(ctx, &m.pending, func(ctx context.Context) (T, error) {
		defer m.inFlight.Store(false)
		v, err := fn(ctx)
		m.record(op, err)
		return v, err
	})
}

// await runs fn detached from ctx cancellation and waits for it. A caller
// that gives up gets ctx.Err(); fn keeps running, tracked by pending, and
// its result is dropped.
func await[T any](ctx context.Context, pending *sync.WaitGroup, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}

	done := make(chan result, 1)
	pending.Add(1)
	go func() {
		defer pending.Done()
		v, err := fn(context.WithoutCancel(ctx))
		done <- result{v: v, err: err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// sessionFromLogin builds a session from a login response. The submitted
// email stands in when the server omits it, and a display name is derived
// from the email when the server omits both name fields.
func sessionFromLogin(email string, resp *gateway.LoginResponse) *domain.Session {
	identity := resp.User
	if identity.Email == "" {
		identity.Email = email
	}
	if identity.FirstName == "" && identity.LastName == "" {
		identity.FirstName, identity.LastName = domain.NameFromEmail(identity.Email)
	}
	return &domain.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Identity:     identity,
	}
}

// mergeProfile applies a profile update to identity. Server-echoed names
// win over the submitted patch; the email never changes.
func mergeProfile(identity domain.Identity, patch domain.ProfilePatch, echoed gateway.ProfileData) domain.Identity {
	if echoed.FirstName != "" || echoed.LastName != "" {
		identity.FirstName = echoed.FirstName
		identity.LastName = echoed.LastName
		return identity
	}
	identity.FirstName = patch.FirstName
	identity.LastName = patch.LastName
	return identity
}
