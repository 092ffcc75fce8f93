// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123"

func TestParseFlags_EnvVars(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("CACHE_TTL", "5m")

	cfg, err := ParseFlags([]string{"--env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.DatabaseType)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("expected cache ttl 5m, got %s", cfg.CacheTTL)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "--session-secret", testSecret, "--env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := ParseFlags([]string{"-d", "file:test.db", "--session-secret", testSecret, "--env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("expected default port %d, got %d", DefaultPort, cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite default, got %s", cfg.DatabaseType)
	}
	if cfg.SessionTTL != DefaultSessionTTL {
		t.Errorf("expected session ttl %s, got %s", DefaultSessionTTL, cfg.SessionTTL)
	}
	if cfg.CacheDir != DefaultCacheDir {
		t.Errorf("expected cache dir %s, got %s", DefaultCacheDir, cfg.CacheDir)
	}
	if cfg.LoginRatePerMinute != DefaultLoginRate {
		t.Errorf("expected login rate %d, got %d", DefaultLoginRate, cfg.LoginRatePerMinute)
	}
	if cfg.GraphEnabled() {
		t.Error("graph should not be enabled without credentials")
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"missing database", []string{"--session-secret", testSecret}, nil},
		{"missing secret", []string{"-d", "file:test.db"}, nil},
		{"short secret", []string{"-d", "file:test.db", "--session-secret", "short"}, nil},
		{"bad database type", []string{"-d", "x", "-t", "mysql", "--session-secret", testSecret}, nil},
		{"bad port env", []string{"-d", "x", "--session-secret", testSecret}, map[string]string{"PORT": "abc"}},
		{"bad ttl env", []string{"-d", "x", "--session-secret", testSecret}, map[string]string{"SESSION_TTL": "forever"}},
		{"bad trust proxy env", []string{"-d", "x", "--session-secret", testSecret}, map[string]string{"TRUST_PROXY": "maybe"}},
		{"unknown flag", []string{"--nope"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("SESSION_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := append([]string{"--env-file", ""}, tt.args...)
			if _, err := ParseFlags(args); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseFlags_TrustProxy(t *testing.T) {
	base := []string{"-d", "file:test.db", "--session-secret", testSecret, "--env-file", ""}

	t.Setenv("TRUST_PROXY", "")
	cfg, err := ParseFlags(base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TrustProxy {
		t.Error("proxy headers must not be trusted by default")
	}

	cfg, err = ParseFlags(append(base, "--trust-proxy"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.TrustProxy {
		t.Error("expected --trust-proxy to enable proxy headers")
	}

	t.Setenv("TRUST_PROXY", "true")
	cfg, err = ParseFlags(base)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.TrustProxy {
		t.Error("expected TRUST_PROXY=true to enable proxy headers")
	}
}

func TestParseFlags_DotEnvFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("GRAPH_TENANT_ID", "")
	t.Setenv("GRAPH_CLIENT_ID", "")
	t.Setenv("GRAPH_CLIENT_SECRET", "")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("SESSION_SECRET")
	os.Unsetenv("GRAPH_TENANT_ID")
	os.Unsetenv("GRAPH_CLIENT_ID")
	os.Unsetenv("GRAPH_CLIENT_SECRET")

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "DATABASE_URL=file:dotenv.db\nSESSION_SECRET=" + testSecret + "\n" +
		"GRAPH_TENANT_ID=tenant\nGRAPH_CLIENT_ID=client\nGRAPH_CLIENT_SECRET=secret\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("SESSION_SECRET")
		os.Unsetenv("GRAPH_TENANT_ID")
		os.Unsetenv("GRAPH_CLIENT_ID")
		os.Unsetenv("GRAPH_CLIENT_SECRET")
	})

	cfg, err := ParseFlags([]string{"--env-file", envFile})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DatabaseURL != "file:dotenv.db" {
		t.Errorf("expected DATABASE_URL from dotenv, got %q", cfg.DatabaseURL)
	}
	if !cfg.GraphEnabled() {
		t.Error("expected graph to be enabled from dotenv")
	}
}
