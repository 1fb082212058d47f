package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	BackendURL        string        `mapstructure:"BACKEND_URL"`
	BackendToken      string        `mapstructure:"BACKEND_TOKEN"`
	BackendTimeout    time.Duration `mapstructure:"BACKEND_TIMEOUT"`
	SessionSigningKey string        `mapstructure:"SESSION_SIGNING_KEY"`
	SessionIssuer     string        `mapstructure:"SESSION_ISSUER"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("BACKEND_TIMEOUT", "15s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("BACKEND_URL")
	v.BindEnv("BACKEND_TOKEN")
	v.BindEnv("BACKEND_TIMEOUT")
	v.BindEnv("SESSION_SIGNING_KEY")
	v.BindEnv("SESSION_ISSUER")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = 15 * time.Second
	}

	if !cfg.IsDev() && cfg.SessionSigningKey == "" {
		return nil, fmt.Errorf("SESSION_SIGNING_KEY is required outside development")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevSessionMiddleware is active, all requests get the")
		log.Println("WARNING: software_admin role. Do NOT use this in production.")
		log.Println("WARNING: Set ENV=production and configure SESSION_SIGNING_KEY.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
