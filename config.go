package auth

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SMTPConfig carries the outbound email settings. Leave Host empty to run
// with the logging stub instead of a real transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether a real SMTP transport can be built.
func (c SMTPConfig) Configured() bool {
	return c.Host != ""
}

// Config holds every runtime setting, loaded from the environment.
type Config struct {
	ListenAddr   string
	AppURL       string
	DatabasePath string
	Debug        bool

	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Audience   []string

	SMTP SMTPConfig
}

// LoadConfig reads the environment, pulling in a .env file first when one
// exists, and validates the result.
func LoadConfig() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:   envOr("LISTEN_ADDR", ":3000"),
		AppURL:       envOr("APP_URL", "http://localhost:3000"),
		DatabasePath: envOr("DATABASE_PATH", "footmatch.db"),
		Debug:        envOr("DEBUG", "") != "",
		SigningKey:   os.Getenv("JWT_SECRET"),
		Issuer:       envOr("JWT_ISSUER", "footmatch"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
		},
	}

	if aud := strings.TrimSpace(os.Getenv("JWT_AUDIENCE")); aud != "" {
		for _, a := range strings.Split(aud, ",") {
			if a = strings.TrimSpace(a); a != "" {
				cfg.Audience = append(cfg.Audience, a)
			}
		}
	}

	var err error
	if cfg.AccessTTL, err = envDuration("JWT_ACCESS_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = envDuration("JWT_REFRESH_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}

	if port := strings.TrimSpace(os.Getenv("SMTP_PORT")); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 {
			return nil, fmt.Errorf("SMTP_PORT must be a positive integer, got %q", port)
		}
		cfg.SMTP.Port = p
	} else if cfg.SMTP.Configured() {
		cfg.SMTP.Port = 587
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures the required settings are present and well formed.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SigningKey) == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}

	if c.SMTP.Configured() {
		var missing []string
		if c.SMTP.Username == "" {
			missing = append(missing, "SMTP_USER")
		}
		if c.SMTP.Password == "" {
			missing = append(missing, "SMTP_PASS")
		}
		if len(missing) > 0 {
			return fmt.Errorf("smtp configuration: missing required environment variables: %s", strings.Join(missing, ", "))
		}
	}

	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return d, nil
}
