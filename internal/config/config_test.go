package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validTOML is a minimal configuration that passes Validate.
const validTOML = `
mode = "full"
log_level = "info"

[chain]
rpc_url = "http://localhost:8545"
chain_id = 1
presale_address = "0x00000000000000000000000000000000000000cc"
controller_address = "0x00000000000000000000000000000000000000dd"

[wallet]
private_key = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

[pair.from]
code = "USDT"
chain_id = "1"
contract_address = "0x00000000000000000000000000000000000000aa"
decimals = 6

[pair.to]
code = "SALE"
chain_id = "1"
contract_address = "0x00000000000000000000000000000000000000bb"
decimals = 18

[runner]
poll_interval = "30s"
workers = 8
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMergesFileOntoDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validTOML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// From the file.
	if cfg.Runner.PollInterval.Duration != 30*time.Second {
		t.Errorf("poll_interval = %s, want 30s", cfg.Runner.PollInterval.Duration)
	}
	if cfg.Runner.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Runner.Workers)
	}
	if cfg.Pair.From.Code != "USDT" || cfg.Pair.From.Decimals != 6 {
		t.Errorf("pair.from = %+v, want USDT/6", cfg.Pair.From)
	}

	// Defaults the file does not mention.
	if cfg.Postgres.Port != 5432 {
		t.Errorf("postgres.port = %d, want default 5432", cfg.Postgres.Port)
	}
	if cfg.Runner.LockBackend != "local" {
		t.Errorf("lock_backend = %s, want default local", cfg.Runner.LockBackend)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("server.port = %d, want default 8000", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config failed validation: %v", err)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("SALESWAP_POSTGRES_PASSWORD", "env-secret")
	t.Setenv("SALESWAP_RUNNER_POLL_INTERVAL", "5s")
	t.Setenv("SALESWAP_CHAIN_ID", "137")
	t.Setenv("SALESWAP_SERVER_ENABLED", "false")
	t.Setenv("SALESWAP_NOTIFY_STATUSES", "FAILED, SUCCESS")

	cfg, err := Load(writeConfig(t, validTOML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Postgres.Password != "env-secret" {
		t.Errorf("postgres.password = %q, want env override", cfg.Postgres.Password)
	}
	if cfg.Runner.PollInterval.Duration != 5*time.Second {
		t.Errorf("poll_interval = %s, want env override 5s", cfg.Runner.PollInterval.Duration)
	}
	if cfg.Chain.ChainID != 137 {
		t.Errorf("chain_id = %d, want env override 137", cfg.Chain.ChainID)
	}
	if cfg.Server.Enabled {
		t.Error("server.enabled = true, want env override false")
	}
	want := []string{"FAILED", "SUCCESS"}
	if len(cfg.Notify.Statuses) != 2 || cfg.Notify.Statuses[0] != want[0] || cfg.Notify.Statuses[1] != want[1] {
		t.Errorf("notify.statuses = %v, want %v", cfg.Notify.Statuses, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "batch"
	cfg.Chain.PresaleAddress = ""
	cfg.Chain.ControllerAddress = ""
	cfg.Runner.Workers = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{
		`unknown mode "batch"`,
		"chain: presale_address",
		"chain: controller_address",
		"wallet: either private_key or encrypted_key_path",
		"pair: from.code",
		"runner: workers must be >= 1",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("validation error missing %q:\n%v", want, err)
		}
	}
}

func TestValidateWalletRules(t *testing.T) {
	cfg := baseValidConfig()

	cfg.Wallet = WalletConfig{EncryptedKeyPath: "/etc/saleswap/key.json"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "key_password is required") {
		t.Errorf("encrypted path without password must fail, got %v", err)
	}

	cfg.Wallet.KeyPassword = "pw"
	if err := cfg.Validate(); err != nil {
		t.Errorf("encrypted path with password must pass, got %v", err)
	}
}

func TestValidateS3OnlyWhenEnabled(t *testing.T) {
	cfg := baseValidConfig()
	cfg.S3.Enabled = false
	cfg.S3.Bucket = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled s3 must not be validated, got %v", err)
	}

	cfg.S3.Enabled = true
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "s3: bucket") {
		t.Errorf("enabled s3 without bucket must fail, got %v", err)
	}
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := baseValidConfig()
	cfg.Wallet.PrivateKey = "super-secret-key"
	cfg.Postgres.Password = "pg-secret"
	cfg.Redis.Password = "redis-secret"
	cfg.S3.SecretKey = "s3-secret"
	cfg.Server.APIKey = "api-secret"
	cfg.Notify.TelegramToken = "tg-secret"

	red := RedactedConfig(&cfg)

	for name, got := range map[string]string{
		"wallet.private_key": red.Wallet.PrivateKey,
		"postgres.password":  red.Postgres.Password,
		"redis.password":     red.Redis.Password,
		"s3.secret_key":      red.S3.SecretKey,
		"server.api_key":     red.Server.APIKey,
		"notify.telegram":    red.Notify.TelegramToken,
	} {
		if strings.Contains(got, "secret") {
			t.Errorf("%s leaked: %q", name, got)
		}
	}

	// Non-secret fields pass through untouched.
	if red.Chain.RPCURL != cfg.Chain.RPCURL {
		t.Error("rpc_url must not be redacted")
	}
	// The redacted copy must not alias the original's slices.
	if len(red.Notify.Statuses) > 0 {
		red.Notify.Statuses[0] = "mutated"
		if cfg.Notify.Statuses[0] == "mutated" {
			t.Error("redacted config shares the statuses slice with the original")
		}
	}
}

func baseValidConfig() Config {
	cfg := Defaults()
	cfg.Chain.PresaleAddress = "0x00000000000000000000000000000000000000cc"
	cfg.Chain.ControllerAddress = "0x00000000000000000000000000000000000000dd"
	cfg.Wallet.PrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	cfg.Pair.From = AssetConfig{Code: "USDT", ChainID: "1", ContractAddress: "0xaa", Decimals: 6}
	cfg.Pair.To = AssetConfig{Code: "SALE", ChainID: "1", ContractAddress: "0xbb", Decimals: 18}
	return cfg
}
