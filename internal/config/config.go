package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v10"
)

const (
	PayloadPolicySkip = "skip"
	PayloadPolicyHalt = "halt"
)

var ErrMissingSetting = errors.New("missing setting")

// Config centraliza la configuración del export.
type Config struct {
	SignalConfigPath   string `env:"SIGNAL_CONFIG_PATH"`
	SignalDatabasePath string `env:"SIGNAL_DATABASE_PATH"`
	OutputDirectory    string `env:"SIGNAL_OUTPUT_DIRECTORY"`
	Workers            int    `env:"EXPORT_WORKERS" envDefault:"0"`
	PayloadErrorPolicy string `env:"PAYLOAD_ERROR_POLICY" envDefault:"skip"`
	LogDebug           bool   `env:"LOG_DEBUG" envDefault:"false"`
	DatabaseURL        string `env:"DATABASE_URL"`
	RedisAddr          string `env:"REDIS_ADDR"`
	RedisPassword      string `env:"REDIS_PASSWORD"`
	RedisDB            int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa que las rutas obligatorias esten presentes y normaliza el resto.
func (c *Config) Validate() error {
	required := []struct {
		value string
		flag  string
		env   string
	}{
		{c.SignalConfigPath, "--config-path", "SIGNAL_CONFIG_PATH"},
		{c.SignalDatabasePath, "--database-path", "SIGNAL_DATABASE_PATH"},
		{c.OutputDirectory, "--output-directory", "SIGNAL_OUTPUT_DIRECTORY"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: neither %s nor the environment variable %s were set", ErrMissingSetting, r.flag, r.env)
		}
	}

	c.PayloadErrorPolicy = strings.ToLower(strings.TrimSpace(c.PayloadErrorPolicy))
	switch c.PayloadErrorPolicy {
	case "":
		c.PayloadErrorPolicy = PayloadPolicySkip
	case PayloadPolicySkip, PayloadPolicyHalt:
	default:
		return fmt.Errorf("%w: payload error policy must be %q or %q, got %q", ErrMissingSetting, PayloadPolicySkip, PayloadPolicyHalt, c.PayloadErrorPolicy)
	}

	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrMissingSetting)
	}
	return nil
}

// WorkerCount devuelve los workers configurados o el paralelismo del equipo.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
