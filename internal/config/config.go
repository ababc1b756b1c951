package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// InsecureTokenSecret is the development default for Identity.TokenSecret.
const InsecureTokenSecret = "supersecretkey"

type Config struct {
	Addr           string          `yaml:"addr"`
	APITimeout     time.Duration   `yaml:"timeout"`
	DatabasePath   string          `yaml:"database_path"`
	MigrateOnStart bool            `yaml:"migrate_on_start"`
	PublicBaseURL  string          `yaml:"public_base_url"`
	Identity       IdentityConfig  `yaml:"identity"`
	Scheduler      SchedulerConfig `yaml:"scheduler"`
	SMTP           SMTPConfig      `yaml:"smtp"`
	Jobs           JobsConfig      `yaml:"jobs"`
}

type IdentityConfig struct {
	RequireVerification bool          `yaml:"require_verification"`
	TokenSecret         string        `yaml:"token_secret"`
	TokenTTL            time.Duration `yaml:"token_ttl"`
}

type SchedulerConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Interval   time.Duration `yaml:"interval"`
	RunOnStart bool          `yaml:"run_on_start"`
}

// SMTPConfig configures outbound mail. An empty Host logs messages instead
// of sending them.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type JobsConfig struct {
	Workers     int `yaml:"workers"`
	MaxAttempts int `yaml:"max_attempts"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:           getEnv("FIXMATE_ADDR", ":3000"),
		APITimeout:     15 * time.Second,
		DatabasePath:   getEnv("FIXMATE_DATABASE_PATH", "fixmate.db"),
		MigrateOnStart: getEnvBool("FIXMATE_MIGRATE_ON_START", true),
		PublicBaseURL:  getEnv("FIXMATE_PUBLIC_BASE_URL", "http://localhost:3000"),
		Identity: IdentityConfig{
			RequireVerification: getEnvBool("FIXMATE_REQUIRE_VERIFICATION", true),
			TokenSecret:         getEnv("FIXMATE_TOKEN_SECRET", InsecureTokenSecret),
			TokenTTL:            24 * time.Hour,
		},
		Scheduler: SchedulerConfig{
			Enabled:    getEnvBool("FIXMATE_SCHEDULER_ENABLED", true),
			Interval:   24 * time.Hour,
			RunOnStart: true,
		},
		SMTP: SMTPConfig{
			Host:     getEnv("FIXMATE_SMTP_HOST", ""),
			Port:     getEnvInt("FIXMATE_SMTP_PORT", 587),
			Username: getEnv("FIXMATE_SMTP_USERNAME", ""),
			Password: getEnv("FIXMATE_SMTP_PASSWORD", ""),
			From:     getEnv("FIXMATE_SMTP_FROM", "FixMate <no-reply@fixmate.local>"),
		},
		Jobs: JobsConfig{
			Workers:     2,
			MaxAttempts: 5,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	return cfg, nil
}

// Validate checks the configuration. The insecure default token secret is
// accepted only when FIXMATE_ENV=development.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is required"))
	}
	if c.APITimeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.Identity.TokenSecret == "" {
		errs = append(errs, errors.New("identity.token_secret is required"))
	} else if c.Identity.TokenSecret == InsecureTokenSecret && os.Getenv("FIXMATE_ENV") != "development" {
		errs = append(errs, errors.New("identity.token_secret uses the insecure default; set FIXMATE_TOKEN_SECRET or FIXMATE_ENV=development"))
	}
	if c.Identity.TokenTTL <= 0 {
		errs = append(errs, errors.New("identity.token_ttl must be positive"))
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("scheduler.interval must be positive"))
	}
	if c.SMTP.Host != "" && (c.SMTP.Port <= 0 || c.SMTP.From == "") {
		errs = append(errs, errors.New("smtp.port and smtp.from are required when smtp.host is set"))
	}
	if c.Jobs.Workers < 0 || c.Jobs.MaxAttempts < 0 {
		errs = append(errs, errors.New("jobs settings must not be negative"))
	}

	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}

	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return def
}
