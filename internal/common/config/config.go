package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Sumsub struct {
		BaseURL       string        `env:"SUMSUB_BASE_URL" envDefault:"https://api.sumsub.com"`
		AppToken      string        `env:"SUMSUB_APP_TOKEN,required"`
		APISecret     string        `env:"SUMSUB_API_SECRET,required"`
		WebhookSecret string        `env:"SUMSUB_WEBHOOK_SECRET,required"`
		Timeout       time.Duration `env:"SUMSUB_TIMEOUT" envDefault:"10s"`

		// Verification tier requested for new applicants.
		DefaultLevel string `env:"SUMSUB_DEFAULT_LEVEL" envDefault:"id-and-liveness"`
	}

	// Cooling-off delay applied after approval before trading is allowed.
	CoolingOff time.Duration `env:"KYC_COOLING_OFF" envDefault:"24h"`

	Auth struct {
		// OIDC issuer used to verify end-user bearer tokens on the status endpoint.
		IssuerURL string `env:"AUTH_ISSUER_URL" envDefault:""`
		ClientID  string `env:"AUTH_CLIENT_ID" envDefault:""`

		// Static token for internal tooling (manual status push).
		ServiceToken string `env:"SERVICE_TOKEN,required"`

		// Admin API of the auth identity provider, used to push display-name
		// metadata after verification.
		AdminURL string `env:"AUTH_ADMIN_URL" envDefault:""`
		AdminKey string `env:"AUTH_ADMIN_KEY" envDefault:""`
	}

	Nats struct {
		// Empty URL disables event publishing.
		URL     string `env:"NATS_URL" envDefault:""`
		Subject string `env:"NATS_SUBJECT_PREFIX" envDefault:"kyc"`
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// Ignore a missing .env file: in production the variables are set
		// directly in the environment.
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
