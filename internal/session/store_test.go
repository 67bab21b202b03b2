package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leaflora/memoria/internal/apperr"
	"github.com/leaflora/memoria/internal/restapi"
	"github.com/leaflora/memoria/internal/testutil"
)

func testStore(t *testing.T) (*Store, *restapi.Client, string) {
	t.Helper()
	backend := testutil.NewBackend(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := restapi.New(backend.URL(), 5*time.Second, logger)
	path := filepath.Join(t.TempDir(), "session.token")
	return NewStore(path, api, logger), api, path
}

func TestLoginPersistsToken(t *testing.T) {
	s, api, path := testStore(t)

	if err := s.Login(context.Background(), testutil.DefaultPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !s.Authenticated() {
		t.Fatal("not authenticated after login")
	}
	if api.Token() != testutil.DefaultToken {
		t.Fatalf("token = %q", api.Token())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read token file: %v", err)
	}
	if string(data) != testutil.DefaultToken+"\n" {
		t.Fatalf("persisted %q", data)
	}
}

func TestLoginEmptyPasswordNoRequest(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// Unroutable backend: the call must fail locally before any request.
	api := restapi.New("http://127.0.0.1:1", time.Second, logger)
	s := NewStore(filepath.Join(t.TempDir(), "session.token"), api, logger)

	err := s.Login(context.Background(), "")
	if !errors.Is(err, apperr.ErrPasswordRequired) {
		t.Fatalf("err = %v, want ErrPasswordRequired", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s, api, path := testStore(t)

	err := s.Login(context.Background(), "nope")
	var apiErr *restapi.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if api.Token() != "" {
		t.Fatal("token installed after failed login")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("token file written after failed login")
	}
}

func TestRestore(t *testing.T) {
	s, _, _ := testStore(t)

	// Nothing persisted yet.
	ok, err := s.Restore(context.Background())
	if err != nil || ok {
		t.Fatalf("Restore on empty = %v, %v", ok, err)
	}

	if err := s.Login(context.Background(), testutil.DefaultPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}

	ok, err = s.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !ok {
		t.Fatal("valid persisted token not restored")
	}
}

func TestRestoreRejectsStaleToken(t *testing.T) {
	s, api, path := testStore(t)

	if err := os.WriteFile(path, []byte("expired-token\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ok, err := s.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if ok {
		t.Fatal("stale token restored")
	}
	if api.Token() != "" {
		t.Fatal("stale token left installed")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("stale token file not removed")
	}
}

func TestRestoreClearsOnNetworkFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := restapi.New("http://127.0.0.1:1", time.Second, logger)
	path := filepath.Join(t.TempDir(), "session.token")
	s := NewStore(path, api, logger)

	if err := os.WriteFile(path, []byte("sometoken\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	ok, err := s.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if ok || api.Token() != "" {
		t.Fatal("unverifiable token kept")
	}
}

func TestLogout(t *testing.T) {
	s, api, path := testStore(t)
	if err := s.Login(context.Background(), testutil.DefaultPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}

	declined := s.Logout(ConfirmFunc(func(string) bool { return false }))
	if !errors.Is(declined, apperr.ErrCancelled) {
		t.Fatalf("declined logout = %v, want ErrCancelled", declined)
	}
	if !s.Authenticated() {
		t.Fatal("declined logout cleared the session")
	}

	if err := s.Logout(ConfirmFunc(func(string) bool { return true })); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if api.Token() != "" {
		t.Fatal("token survived logout")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("token file survived logout")
	}
}
