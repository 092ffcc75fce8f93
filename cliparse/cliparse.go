package cliparse

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	DefaultPort       = 3318
	DefaultCacheDir   = "cache"
	DefaultCacheTTL   = 15 * time.Minute
	DefaultSessionTTL = 8 * time.Hour
	DefaultLoginRate  = 10

	minSessionSecretLen = 16
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	EnvFile      string
	LogLevel     string

	SessionSecret string
	SessionTTL    time.Duration

	CacheDir string
	CacheTTL time.Duration

	BaseURL            string
	LoginRatePerMinute int
	// TrustProxy keys client addresses on X-Forwarded-For / X-Real-IP.
	// Only set it behind a reverse proxy that overwrites those headers.
	TrustProxy bool

	GraphTenantID     string
	GraphClientID     string
	GraphClientSecret string
	GraphCompanyName  string
}

// GraphEnabled reports whether Microsoft Graph credentials are configured.
func (c Config) GraphEnabled() bool {
	return c.GraphTenantID != "" && c.GraphClientID != "" && c.GraphClientSecret != ""
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	// Network config (can be CLI args or env)
	fs.IntVarP(&cfg.Port, "port", "p", 0, "Server port")
	fs.StringVarP(&cfg.DatabaseURL, "database-url", "d", "", "Database URL")
	fs.StringVarP(&cfg.DatabaseType, "database-type", "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.EnvFile, "env-file", ".env", "Optional dotenv file")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Session signing secret (prefer env)")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", 0, "Session lifetime")

	fs.StringVar(&cfg.CacheDir, "cache-dir", "", "Directory cache location")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", 0, "Directory cache lifetime")

	fs.StringVar(&cfg.BaseURL, "base-url", "", "Public base URL used in embed snippets")
	fs.IntVar(&cfg.LoginRatePerMinute, "login-rate", 0, "Login attempts per minute per client")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", false, "Trust X-Forwarded-For from a reverse proxy")

	fs.StringVar(&cfg.GraphTenantID, "graph-tenant", "", "Microsoft Graph tenant id")
	fs.StringVar(&cfg.GraphClientID, "graph-client-id", "", "Microsoft Graph client id")
	fs.StringVar(&cfg.GraphClientSecret, "graph-client-secret", "", "Microsoft Graph client secret (prefer env)")
	fs.StringVar(&cfg.GraphCompanyName, "graph-company", "", "Only import Graph users with this companyName")
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := pflag.NewFlagSet("staff-directory", pflag.ContinueOnError)
	BindFlags(fs, &cfg)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := Resolve(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Resolve falls back to environment variables (after loading the optional
// dotenv file) for every flag that was left empty, applies defaults and
// validates the result.
func Resolve(cfg *Config) error {
	if cfg.EnvFile != "" {
		if _, err := os.Stat(cfg.EnvFile); err == nil {
			// godotenv.Load never overrides variables that are already set
			if err := godotenv.Load(cfg.EnvFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", cfg.EnvFile, err)
			}
		}
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return fmt.Errorf("unsupported database type %q (use sqlite or postgres)", cfg.DatabaseType)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv("LOG_LEVEL")
	}

	// Secrets - MUST be provided
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET required")
	}
	if len(cfg.SessionSecret) < minSessionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters", minSessionSecretLen)
	}

	var err error
	if cfg.SessionTTL, err = durationOrEnv(cfg.SessionTTL, "SESSION_TTL", DefaultSessionTTL); err != nil {
		return err
	}
	if cfg.CacheTTL, err = durationOrEnv(cfg.CacheTTL, "CACHE_TTL", DefaultCacheTTL); err != nil {
		return err
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = os.Getenv("CACHE_DIR")
		if cfg.CacheDir == "" {
			cfg.CacheDir = DefaultCacheDir
		}
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("BASE_URL")
	}

	if cfg.LoginRatePerMinute == 0 {
		if rateStr := os.Getenv("LOGIN_RATE_PER_MINUTE"); rateStr != "" {
			rate, err := strconv.Atoi(rateStr)
			if err != nil || rate < 1 {
				return errors.New("invalid LOGIN_RATE_PER_MINUTE env variable")
			}
			cfg.LoginRatePerMinute = rate
		} else {
			cfg.LoginRatePerMinute = DefaultLoginRate
		}
	}

	if !cfg.TrustProxy {
		if v := os.Getenv("TRUST_PROXY"); v != "" {
			trust, err := strconv.ParseBool(v)
			if err != nil {
				return errors.New("invalid TRUST_PROXY env variable")
			}
			cfg.TrustProxy = trust
		}
	}

	if cfg.GraphTenantID == "" {
		cfg.GraphTenantID = os.Getenv("GRAPH_TENANT_ID")
	}
	if cfg.GraphClientID == "" {
		cfg.GraphClientID = os.Getenv("GRAPH_CLIENT_ID")
	}
	if cfg.GraphClientSecret == "" {
		cfg.GraphClientSecret = os.Getenv("GRAPH_CLIENT_SECRET")
	}
	if cfg.GraphCompanyName == "" {
		cfg.GraphCompanyName = os.Getenv("GRAPH_COMPANY_NAME")
	}

	return nil
}

func durationOrEnv(current time.Duration, key string, def time.Duration) (time.Duration, error) {
	if current != 0 {
		return current, nil
	}
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return d, nil
}
