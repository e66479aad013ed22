package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/yndnr/fintrack-go/internal/core/domain"
)

// Operation names an auth gateway call. It selects the failure mapping
// and labels metrics.
type Operation string

const (
	OpLogin          Operation = "login"
	OpRefresh        Operation = "refresh"
	OpChangePassword Operation = "change_password"
	OpUpdateProfile  Operation = "update_profile"
)

// Server error codes with a dedicated mapping.
const (
	codeWeakPassword         = "weak_password"
	codeWrongCurrentPassword = "wrong_current_password"
)

// apiError is the error body returned by the auth API.
// Some endpoints use "error" and "detail" instead of "code" and "message".
type apiError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Detail  json.RawMessage `json:"detail"`
}

// parseAPIError decodes body leniently. Unknown shapes yield a zero apiError.
func parseAPIError(body []byte) apiError {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return apiError{}
	}
	if e.Code == "" {
		e.Code = e.Error
	}
	if e.Message == "" && len(e.Detail) > 0 {
		var s string
		if err := json.Unmarshal(e.Detail, &s); err == nil {
			e.Message = s
		} else {
			e.Message = string(e.Detail)
		}
	}
	return e
}

// mapStatus translates a non-2xx response into a domain error.
func mapStatus(op Operation, status int, body []byte) error {
	e := parseAPIError(body)

	var base *domain.DomainError
	switch {
	case status >= http.StatusInternalServerError:
		base = domain.ErrNetwork
	default:
		base = mapClientStatus(op, status, strings.ToLower(e.Code))
	}

	details := fmt.Sprintf("%s: HTTP %d", op, status)
	if e.Message != "" {
		details = e.Message
	}
	return base.WithDetails(details)
}

func mapClientStatus(op Operation, status int, code string) *domain.DomainError {
	switch op {
	case OpLogin:
		if status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden {
			return domain.ErrInvalidCredentials
		}
	case OpRefresh:
		if status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden {
			return domain.ErrRefreshInvalid
		}
	case OpChangePassword:
		switch {
		case code == codeWeakPassword:
			return domain.ErrWeakPassword
		case code == codeWrongCurrentPassword:
			return domain.ErrWrongCurrentPassword
		case status == http.StatusUnprocessableEntity:
			return domain.ErrWeakPassword
		case status == http.StatusBadRequest:
			return domain.ErrWrongCurrentPassword
		}
	case OpUpdateProfile:
		if status == http.StatusBadRequest || status == http.StatusUnprocessableEntity {
			return domain.ErrValidation
		}
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return domain.ErrAccessRejected
	}
	return domain.ErrUnexpectedStatus
}

// outcome classifies a call result for the latency histogram.
func outcome(status int, err error) string {
	switch {
	case status == 0 && err != nil:
		return "transport"
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status != 0 && (status < 200 || status >= 300):
		return "unexpected"
	case err != nil:
		return "invalid_body"
	default:
		return "ok"
	}
}
