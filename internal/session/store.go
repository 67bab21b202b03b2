// Package session persists and verifies the bearer token that gates every
// other operation. The token lives in a single file, the CLI analog of
// browser session storage: written on login, removed on logout or failed
// verification.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leaflora/memoria/internal/apperr"
	"github.com/leaflora/memoria/internal/restapi"
)

// Confirmer answers interactive yes/no questions. Commands pass a terminal
// prompt; tests pass a canned answer.
type Confirmer interface {
	Confirm(question string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(question string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(question string) bool { return f(question) }

// Store owns the session token and its on-disk persistence.
type Store struct {
	path   string
	api    *restapi.Client
	logger *slog.Logger
}

// NewStore creates a session store persisting the token at path.
func NewStore(path string, api *restapi.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, api: api, logger: logger}
}

// Authenticated reports whether a token is currently installed.
func (s *Store) Authenticated() bool {
	return s.api.Token() != ""
}

// Restore reads the persisted token and verifies it against the backend.
// It returns true only when the token exists and the backend accepts it;
// on any failure, including network errors, the token is cleared so the
// caller lands on the login path.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("session: read token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return false, nil
	}

	s.api.SetToken(token)
	valid, err := s.api.Verify(ctx)
	if err != nil || !valid {
		if err != nil {
			s.logger.Warn("token verification failed", slog.String("error", err.Error()))
		}
		s.clear()
		return false, nil
	}
	return true, nil
}

// Login validates the password locally, then performs a single login
// attempt. On success the returned token is installed and persisted.
func (s *Store) Login(ctx context.Context, password string) error {
	if password == "" {
		return apperr.ErrPasswordRequired
	}
	token, err := s.api.Login(ctx, password)
	if err != nil {
		return err
	}

	s.api.SetToken(token)
	if err := s.persist(token); err != nil {
		// The session still works in-process; only resumption is lost.
		s.logger.Warn("persist token failed", slog.String("error", err.Error()))
	}
	return nil
}

// Logout asks for confirmation, then clears the token. Cached journal data
// is the caller's to discard.
func (s *Store) Logout(confirm Confirmer) error {
	if confirm != nil && !confirm.Confirm("Log out?") {
		return apperr.ErrCancelled
	}
	s.clear()
	return nil
}

func (s *Store) persist(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: mkdir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("session: write token: %w", err)
	}
	return nil
}

func (s *Store) clear() {
	s.api.SetToken("")
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("remove token file failed", slog.String("error", err.Error()))
	}
}
