package config

import (
	"errors"
	"runtime"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		SignalConfigPath:   "/signal/config.json",
		SignalDatabasePath: "/signal/sql/db.sqlite",
		OutputDirectory:    "/tmp/out",
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("SIGNAL_CONFIG_PATH", "/a/config.json")
	t.Setenv("SIGNAL_DATABASE_PATH", "/a/db.sqlite")
	t.Setenv("SIGNAL_OUTPUT_DIRECTORY", "/a/out")
	t.Setenv("EXPORT_WORKERS", "3")
	t.Setenv("PAYLOAD_ERROR_POLICY", "halt")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.SignalConfigPath != "/a/config.json" || cfg.SignalDatabasePath != "/a/db.sqlite" || cfg.OutputDirectory != "/a/out" {
		t.Fatalf("unexpected paths: %+v", cfg)
	}
	if cfg.Workers != 3 || cfg.PayloadErrorPolicy != PayloadPolicyHalt {
		t.Fatalf("unexpected workers/policy: %d %q", cfg.Workers, cfg.PayloadErrorPolicy)
	}
}

func TestConfigValidate_MissingPaths(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		needle string
	}{
		{"config path", func(c *Config) { c.SignalConfigPath = "" }, "SIGNAL_CONFIG_PATH"},
		{"database path", func(c *Config) { c.SignalDatabasePath = " " }, "SIGNAL_DATABASE_PATH"},
		{"output dir", func(c *Config) { c.OutputDirectory = "" }, "SIGNAL_OUTPUT_DIRECTORY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrMissingSetting) {
				t.Fatalf("expected ErrMissingSetting, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.needle) {
				t.Fatalf("expected message to name %s, got %q", tc.needle, err.Error())
			}
		})
	}
}

func TestConfigValidate_Policy(t *testing.T) {
	cfg := validConfig()
	cfg.PayloadErrorPolicy = " HALT "
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.PayloadErrorPolicy != PayloadPolicyHalt {
		t.Fatalf("expected normalized policy, got %q", cfg.PayloadErrorPolicy)
	}

	cfg = validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.PayloadErrorPolicy != PayloadPolicySkip {
		t.Fatalf("expected default skip policy, got %q", cfg.PayloadErrorPolicy)
	}

	cfg = validConfig()
	cfg.PayloadErrorPolicy = "ignore"
	if err := cfg.Validate(); !errors.Is(err, ErrMissingSetting) {
		t.Fatalf("expected ErrMissingSetting for unknown policy, got %v", err)
	}
}

func TestConfigWorkerCount(t *testing.T) {
	cfg := validConfig()
	if got := cfg.WorkerCount(); got != runtime.NumCPU() {
		t.Fatalf("expected NumCPU workers, got %d", got)
	}
	cfg.Workers = 2
	if got := cfg.WorkerCount(); got != 2 {
		t.Fatalf("expected 2 workers, got %d", got)
	}
}
