package command

import (
	"github.com/yndnr/fintrack-go/internal/core/domain"
)

// sessionView is the printable form of the session. It never carries tokens.
type sessionView struct {
	State    domain.SessionState `json:"state" yaml:"state"`
	UserID   domain.UserID       `json:"user_id,omitempty" yaml:"user_id,omitempty" table:"USER ID"`
	Email    string              `json:"email,omitempty" yaml:"email,omitempty"`
	Name     string              `json:"name,omitempty" yaml:"name,omitempty"`
	UserType string              `json:"user_type,omitempty" yaml:"user_type,omitempty" table:"USER TYPE"`
	Tokens   string              `json:"tokens,omitempty" yaml:"tokens,omitempty"`
}

func newSessionView(id *domain.Identity) *sessionView {
	if id == nil {
		return &sessionView{State: domain.StateLoggedOut}
	}
	return &sessionView{
		State:    domain.StateLoggedIn,
		UserID:   id.ID,
		Email:    id.Email,
		Name:     id.DisplayName(),
		UserType: id.UserType,
	}
}

// messageView is a one-line result.
type messageView struct {
	Result string `json:"result" yaml:"result"`
}
