package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SALESWAP_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SALESWAP_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "SALESWAP_CHAIN_RPC_URL")
	setInt64(&cfg.Chain.ChainID, "SALESWAP_CHAIN_ID")
	setStr(&cfg.Chain.PresaleAddress, "SALESWAP_CHAIN_PRESALE_ADDRESS")
	setStr(&cfg.Chain.ControllerAddress, "SALESWAP_CHAIN_CONTROLLER_ADDRESS")

	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "SALESWAP_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "SALESWAP_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "SALESWAP_WALLET_KEY_PASSWORD")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "SALESWAP_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SALESWAP_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SALESWAP_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SALESWAP_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SALESWAP_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SALESWAP_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SALESWAP_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SALESWAP_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SALESWAP_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SALESWAP_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SALESWAP_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SALESWAP_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SALESWAP_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SALESWAP_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SALESWAP_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SALESWAP_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SALESWAP_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SALESWAP_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SALESWAP_S3_REGION")
	setStr(&cfg.S3.Bucket, "SALESWAP_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SALESWAP_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SALESWAP_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SALESWAP_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SALESWAP_S3_FORCE_PATH_STYLE")
	setInt(&cfg.S3.RetentionDays, "SALESWAP_S3_RETENTION_DAYS")

	// ── Runner ──
	setDuration(&cfg.Runner.PollInterval, "SALESWAP_RUNNER_POLL_INTERVAL")
	setInt(&cfg.Runner.Workers, "SALESWAP_RUNNER_WORKERS")
	setStr(&cfg.Runner.LockBackend, "SALESWAP_RUNNER_LOCK_BACKEND")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "SALESWAP_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SALESWAP_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SALESWAP_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SALESWAP_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SALESWAP_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SALESWAP_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SALESWAP_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Statuses, "SALESWAP_NOTIFY_STATUSES")

	// ── Top-level ──
	setStr(&cfg.Mode, "SALESWAP_MODE")
	setStr(&cfg.LogLevel, "SALESWAP_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
