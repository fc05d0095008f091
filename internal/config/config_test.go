package config

import (
	"os"
	"testing"
	"time"
)

func TestConfigLoad_Defaults(t *testing.T) {
	_ = os.Unsetenv("POST_LEDGER_DB_DRIVER")
	_ = os.Unsetenv("POST_LEDGER_STORE_TIMEOUT")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "sqlite" || cfg.SQLitePath != "data/ledger.db" {
		t.Fatalf("unexpected default driver config: %+v", cfg)
	}
	if cfg.StoreTimeout != 5*time.Second || cfg.ConfirmTTL != 10*time.Minute {
		t.Fatalf("unexpected default timeouts: %+v", cfg)
	}
	if cfg.GetHTTPAddr() != ":8080" {
		t.Fatalf("addr = %s", cfg.GetHTTPAddr())
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	_ = os.Setenv("POST_LEDGER_STORE_TIMEOUT", "750ms")
	defer func() { _ = os.Unsetenv("POST_LEDGER_STORE_TIMEOUT") }()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.StoreTimeout != 750*time.Millisecond {
		t.Fatalf("store timeout env override failed, got %v", cfg.StoreTimeout)
	}
}

func TestConfigLoad_PostgresRequiresDSN(t *testing.T) {
	_ = os.Setenv("POST_LEDGER_DB_DRIVER", "postgres")
	defer func() { _ = os.Unsetenv("POST_LEDGER_DB_DRIVER") }()

	if _, err := New(); err == nil {
		t.Fatal("postgres driver without DSN must fail")
	}
}

func TestConfigLoad_UnknownDriver(t *testing.T) {
	_ = os.Setenv("POST_LEDGER_DB_DRIVER", "oracle")
	defer func() { _ = os.Unsetenv("POST_LEDGER_DB_DRIVER") }()

	if _, err := New(); err == nil {
		t.Fatal("unknown driver must fail")
	}
}
