package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret   string   `mapstructure:"JWT_SECRET"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	// CommitTimeoutMS bounds the billing commit transaction. A commit
	// that exceeds it is treated as failed, never partially applied.
	CommitTimeoutMS int `mapstructure:"COMMIT_TIMEOUT_MS"`

	// Sequence starting values continue the legacy numbering schemes.
	PatientSeqStart    int64  `mapstructure:"SEQ_PATIENT_START"`
	PatientSeqPrefix   string `mapstructure:"SEQ_PATIENT_PREFIX"`
	ConsultBillStart   int64  `mapstructure:"SEQ_CONSULT_BILL_START"`
	ConsultBillPrefix  string `mapstructure:"SEQ_CONSULT_BILL_PREFIX"`
	ServiceBillStart   int64  `mapstructure:"SEQ_SERVICE_BILL_START"`
	ServiceBillPrefix  string `mapstructure:"SEQ_SERVICE_BILL_PREFIX"`
	PharmacyBillStart  int64  `mapstructure:"SEQ_PHARMACY_BILL_START"`
	PharmacyBillPrefix string `mapstructure:"SEQ_PHARMACY_BILL_PREFIX"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("COMMIT_TIMEOUT_MS", 5000)
	v.SetDefault("SEQ_PATIENT_START", 1001)
	v.SetDefault("SEQ_PATIENT_PREFIX", "")
	v.SetDefault("SEQ_CONSULT_BILL_START", 1)
	v.SetDefault("SEQ_CONSULT_BILL_PREFIX", "CB")
	v.SetDefault("SEQ_SERVICE_BILL_START", 1)
	v.SetDefault("SEQ_SERVICE_BILL_PREFIX", "SB")
	v.SetDefault("SEQ_PHARMACY_BILL_START", 1)
	v.SetDefault("SEQ_PHARMACY_BILL_PREFIX", "PB")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"JWT_SECRET", "CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"COMMIT_TIMEOUT_MS",
		"SEQ_PATIENT_START", "SEQ_PATIENT_PREFIX",
		"SEQ_CONSULT_BILL_START", "SEQ_CONSULT_BILL_PREFIX",
		"SEQ_SERVICE_BILL_START", "SEQ_SERVICE_BILL_PREFIX",
		"SEQ_PHARMACY_BILL_START", "SEQ_PHARMACY_BILL_PREFIX",
	} {
		v.BindEnv(key)
	}

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

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// CommitTimeout returns the billing commit deadline as a duration.
func (c *Config) CommitTimeout() time.Duration {
	if c.CommitTimeoutMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.CommitTimeoutMS) * time.Millisecond
}

// Validate checks that the configuration is safe to run. Outside
// development a JWT secret is required so real authentication is
// enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q", c.Env)
	}
	if c.PatientSeqStart < 1 || c.ConsultBillStart < 1 || c.ServiceBillStart < 1 || c.PharmacyBillStart < 1 {
		return fmt.Errorf("sequence starting values must be >= 1")
	}
	return nil
}
