package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("unexpected token ttl: %s", cfg.Auth.TokenTTL)
	}
	if !cfg.Auth.AllowRoleSelect {
		t.Fatal("expected role select enabled by default")
	}
	if cfg.RateLimit.Disabled {
		t.Fatal("expected rate limiting enabled by default")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BOUNTYHUB_HTTP_ADDR", ":9090")
	t.Setenv("BOUNTYHUB_AUTH_ALLOW_ROLE_SELECT", "false")
	t.Setenv("BOUNTYHUB_DB_DSN", "postgres://localhost/bountyhub")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("addr not overridden: %s", cfg.HTTP.Addr)
	}
	if cfg.Auth.AllowRoleSelect {
		t.Fatal("allow_role_select not overridden")
	}
	if cfg.DB.DSN != "postgres://localhost/bountyhub" {
		t.Fatalf("dsn not overridden: %s", cfg.DB.DSN)
	}
}

func TestEnvToPath(t *testing.T) {
	cases := map[string]string{
		"BOUNTYHUB_HTTP_ADDR":              "http.addr",
		"BOUNTYHUB_DB_MAX_OPEN_CONNS":      "db.max_open_conns",
		"BOUNTYHUB_AUTH_ALLOW_ROLE_SELECT": "auth.allow_role_select",
		"BOUNTYHUB_LOG_LEVEL":              "log.level",
	}
	for in, want := range cases {
		if got := envToPath(in); got != want {
			t.Errorf("envToPath(%q) = %q, want %q", in, got, want)
		}
	}
}
