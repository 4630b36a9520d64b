package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("SUPABASE_URL", "")

	cfg := Load()

	if cfg.Environment != "dev" {
		t.Errorf("Environment = %q, want dev", cfg.Environment)
	}
	if cfg.TablePrefix != "dev_" {
		t.Errorf("TablePrefix = %q, want dev_", cfg.TablePrefix)
	}
	if cfg.SupabaseJWKSURL != "" {
		t.Errorf("SupabaseJWKSURL = %q, want empty without SUPABASE_URL", cfg.SupabaseJWKSURL)
	}
	if cfg.RevisionRateWindow != time.Minute {
		t.Errorf("RevisionRateWindow = %v, want 1m", cfg.RevisionRateWindow)
	}
	if !cfg.Debug {
		t.Error("Debug should default to true in dev")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co/")
	t.Setenv("REVISION_RATE_LIMIT", "3")
	t.Setenv("REVISION_RATE_WINDOW", "30s")
	t.Setenv("CODEGEN_MAX_TOKENS", "not-a-number")
	t.Setenv("SSE_KEEPALIVE", "4s")

	cfg := Load()

	if cfg.TablePrefix != "prod_" {
		t.Errorf("TablePrefix = %q, want prod_", cfg.TablePrefix)
	}
	if want := "https://example.supabase.co/auth/v1/.well-known/jwks.json"; cfg.SupabaseJWKSURL != want {
		t.Errorf("SupabaseJWKSURL = %q, want %q", cfg.SupabaseJWKSURL, want)
	}
	if cfg.RevisionRateLimit != 3 {
		t.Errorf("RevisionRateLimit = %d, want 3", cfg.RevisionRateLimit)
	}
	if cfg.RevisionRateWindow != 30*time.Second {
		t.Errorf("RevisionRateWindow = %v, want 30s", cfg.RevisionRateWindow)
	}
	if cfg.SSEKeepAlive != 4*time.Second {
		t.Errorf("SSEKeepAlive = %v, want 4s", cfg.SSEKeepAlive)
	}
	if cfg.CodegenMaxTokens != 16000 {
		t.Errorf("CodegenMaxTokens = %d, want fallback 16000", cfg.CodegenMaxTokens)
	}
	if cfg.Debug {
		t.Error("Debug should default to false in prod")
	}
	if cfg.IsDev() {
		t.Error("prod must not be dev")
	}
}
