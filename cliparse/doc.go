// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration from flags, environment variables, and
an optional dotenv file.

# Precedence

  1. CLI flags
  2. Environment variables
  3. The dotenv file (--env-file, default ".env"; never overrides the environment)
  4. Defaults

# Usage

Standalone:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

From a cobra command:

	cliparse.BindFlags(cmd.PersistentFlags(), &cfg)
	// later, in PersistentPreRunE
	err := cliparse.Resolve(&cfg)

# Settings

Required:

  - DATABASE_URL (-d): sqlite DSN or PostgreSQL connection string
  - SESSION_SECRET (--session-secret): HMAC key for session tokens, 16+ chars

Optional:

  - PORT (-p): server port (default 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - SESSION_TTL: session lifetime (default 8h)
  - CACHE_DIR, CACHE_TTL: directory cache location and lifetime (cache, 15m)
  - BASE_URL: public URL used in embed snippets
  - LOGIN_RATE_PER_MINUTE: login attempts per client per minute (default 10)
  - TRUST_PROXY (--trust-proxy): key clients on X-Forwarded-For; only behind
    a proxy that sets it (default false)
  - GRAPH_TENANT_ID, GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET, GRAPH_COMPANY_NAME:
    Microsoft Graph application credentials for sync-graph
  - LOG_LEVEL: debug, info, warn, error
*/
package cliparse
