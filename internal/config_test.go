package internal

import (
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := cfg.API.Timeout(); got != 30*time.Second {
		t.Fatalf("timeout = %v", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.API.BaseURL = "" }},
		{"malformed base url", func(c *Config) { c.API.BaseURL = "not a url" }},
		{"zero timeout", func(c *Config) { c.API.TimeoutSeconds = 0 }},
		{"excessive timeout", func(c *Config) { c.API.TimeoutSeconds = 6000 }},
		{"missing session path", func(c *Config) { c.Session.Path = "" }},
		{"missing preview dir", func(c *Config) { c.Staging.PreviewDir = "" }},
		{"preview size too small", func(c *Config) { c.Staging.PreviewSize = 8 }},
		{"preview size too large", func(c *Config) { c.Staging.PreviewSize = 4096 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEmptyCachePathAllowed(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Cache.Path = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty cache path rejected: %v", err)
	}
}
