package command

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/fintrack-go/internal/core/domain"
)

func TestStatus(t *testing.T) {
	server := newMockServer(t)

	res := run(t, server, "--ephemeral", "status")
	if res.err != nil {
		t.Fatalf("status error = %v", res.err)
	}
	for _, want := range []string{"STATE", "logged_out", "STORE ENGINE", "memory", server.URL} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("status output missing %q:\n%s", want, res.stdout)
		}
	}
	for _, line := range strings.Split(res.stdout, "\n") {
		if strings.HasPrefix(line, "STORE DIR") && strings.TrimSpace(strings.TrimPrefix(line, "STORE DIR")) != "-" {
			t.Errorf("memory engine should not report a store dir: %q", line)
		}
	}
}

func TestStatus_LoggedInBadger(t *testing.T) {
	server := newMockServer(t)
	server.handle("POST /auth/login", loginHandler)
	dir := t.TempDir()

	if res := run(t, server, "--store-dir", dir, "login", "--email", "a@x.com", "--password", "pw"); res.err != nil {
		t.Fatalf("login error = %v", res.err)
	}

	res := run(t, server, "--store-dir", dir, "-o", "yaml", "status")
	if res.err != nil {
		t.Fatalf("status error = %v", res.err)
	}
	for _, want := range []string{"state: logged_in", "email: a@x.com", "engine: badger", "store_dir: " + dir, "sealed: false"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("status output missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestStatus_AccessExpiry(t *testing.T) {
	server := newMockServer(t)
	exp := time.Date(2031, 6, 1, 12, 0, 0, 0, time.UTC)
	access := signedToken(t, jwt.MapClaims{"sub": "42", "exp": exp.Unix()})
	server.handle("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{
			"access_token":  access,
			"refresh_token": "R1",
			"user":          map[string]any{"id": 42, "email": "a@x.com"},
		})
	})
	dir := t.TempDir()

	if res := run(t, server, "--store-dir", dir, "login", "--email", "a@x.com", "--password", "pw"); res.err != nil {
		t.Fatalf("login error = %v", res.err)
	}

	res := run(t, server, "--store-dir", dir, "-o", "json", "status")
	if res.err != nil {
		t.Fatalf("status error = %v", res.err)
	}
	view := decodeView(t, res.stdout)
	if view["access_expires"] != "2031-06-01T12:00:00Z" {
		t.Errorf("access_expires = %v, want 2031-06-01T12:00:00Z", view["access_expires"])
	}
	if strings.Contains(res.stdout, access) {
		t.Error("status output leaked the access token")
	}
}

func TestStatus_Metrics(t *testing.T) {
	server := newMockServer(t)
	server.handle("POST /auth/login", loginHandler)
	dir := t.TempDir()

	if res := run(t, server, "--store-dir", dir, "login", "--email", "a@x.com", "--password", "pw"); res.err != nil {
		t.Fatalf("login error = %v", res.err)
	}

	res := run(t, server, "--store-dir", dir, "status", "--metrics")
	if res.err != nil {
		t.Fatalf("status --metrics error = %v", res.err)
	}
	for _, want := range []string{
		"fintrack_session_logged_in 1",
		`fintrack_session_operations_total{operation="restore",result="success"} 1`,
		"fintrack_credential_store_lsm_size_bytes",
	} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("metrics output missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestSealedStore(t *testing.T) {
	server := newMockServer(t)
	server.handle("POST /auth/login", loginHandler)
	dir := t.TempDir()

	t.Setenv("FINTRACK_STORAGE_ENCRYPTION_PASSPHRASE", "correct horse")
	if res := run(t, server, "--store-dir", dir, "login", "--email", "a@x.com", "--password", "pw"); res.err != nil {
		t.Fatalf("login error = %v", res.err)
	}

	res := run(t, server, "--store-dir", dir, "-o", "json", "whoami")
	if res.err != nil {
		t.Fatalf("whoami with passphrase error = %v", res.err)
	}
	if view := decodeView(t, res.stdout); view["email"] != "a@x.com" {
		t.Errorf("whoami output = %v", view)
	}

	// A different passphrase cannot open the record; it is discarded.
	t.Setenv("FINTRACK_STORAGE_ENCRYPTION_PASSPHRASE", "wrong passphrase")
	res = run(t, server, "--store-dir", dir, "whoami")
	if !errors.Is(res.err, domain.ErrUnauthenticated) {
		t.Errorf("whoami with wrong passphrase error = %v, want ErrUnauthenticated", res.err)
	}
	if !strings.Contains(res.stderr, "FT-STOR-5002") {
		t.Errorf("stderr should report the corrupt record, got %q", res.stderr)
	}
}

func TestConfigShow_MasksPassphrase(t *testing.T) {
	server := newMockServer(t)
	t.Setenv("FINTRACK_STORAGE_ENCRYPTION_PASSPHRASE", "supersecret")

	for _, format := range []string{"table", "yaml", "json"} {
		t.Run(format, func(t *testing.T) {
			res := run(t, server, "--ephemeral", "-o", format, "config", "show")
			if res.err != nil {
				t.Fatalf("config show error = %v", res.err)
			}
			if strings.Contains(res.stdout, "supersecret") {
				t.Errorf("passphrase leaked:\n%s", res.stdout)
			}
			if !strings.Contains(res.stdout, "su*******et") {
				t.Errorf("masked passphrase missing:\n%s", res.stdout)
			}
			if !strings.Contains(res.stdout, server.URL) {
				t.Errorf("base url missing:\n%s", res.stdout)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	server := newMockServer(t)

	if res := run(t, server, "--ephemeral", "config", "validate"); res.err != nil {
		t.Errorf("config validate error = %v", res.err)
	}

	t.Setenv("FINTRACK_GATEWAY_TIMEOUT", "0s")
	res := run(t, server, "--ephemeral", "config", "validate")
	if !errors.Is(res.err, domain.ErrConfig) {
		t.Errorf("config validate error = %v, want ErrConfig", res.err)
	}
}
