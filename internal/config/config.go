package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is the environment-driven service configuration for the HORIZON
// dispatch server.
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Dispatch struct {
		// Term weights for efficiency, adaptability, and collective cost.
		Alpha float64 `env:"DISPATCH_ALPHA" envDefault:"0.4"`
		Beta  float64 `env:"DISPATCH_BETA" envDefault:"0.3"`
		Gamma float64 `env:"DISPATCH_GAMMA" envDefault:"0.3"`

		// Discretization defaults, used when a request omits them.
		TimeHorizon float64 `env:"DISPATCH_TIME_HORIZON" envDefault:"1.0"`
		Steps       int     `env:"DISPATCH_STEPS" envDefault:"100"`

		// Solver budget.
		MaxIterations int     `env:"DISPATCH_MAX_ITERATIONS" envDefault:"1000"`
		Tolerance     float64 `env:"DISPATCH_TOLERANCE" envDefault:"1e-6"`
	}
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Development runs default to verbose logging.
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}
