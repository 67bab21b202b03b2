package internal

import (
	"io"

	"github.com/leaflora/memoria/internal/session"
)

// Option is a functional option for configuring the application.
type Option func(*App)

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *App) {
		a.cfg = cfg
	}
}

// WithOutput redirects timeline rendering (default: stdout).
func WithOutput(w io.Writer) Option {
	return func(a *App) {
		a.out = w
	}
}

// WithConfirmer replaces the interactive yes/no prompt.
func WithConfirmer(c session.Confirmer) Option {
	return func(a *App) {
		a.confirm = c
	}
}
