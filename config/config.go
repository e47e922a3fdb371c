package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string   `mapstructure:"APP_PORT"`
	Env               string   `mapstructure:"ENV"`
	LogLevel          string   `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int      `mapstructure:"MAX_REQUESTS_PER_MIN"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`

	// Storage.
	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	MongoDatabase  string `mapstructure:"MONGO_DATABASE"`
	SeedCatalog    bool   `mapstructure:"SEED_CATALOG"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Keycloak bearer verification.
	KeycloakIssuerURI string `mapstructure:"KEYCLOAK_ISSUER_URI"`
	KeycloakJWKSURI   string `mapstructure:"KEYCLOAK_JWKS_URI"`
	KeycloakAudience  string `mapstructure:"KEYCLOAK_AUDIENCE"`

	// Cache TTLs.
	CacheTTLSpecialists      time.Duration `mapstructure:"CACHE_TTL_SPECIALISTS"`
	CacheTTLSpecialistDetail time.Duration `mapstructure:"CACHE_TTL_SPECIALIST_DETAIL"`
	CacheTTLReviews          time.Duration `mapstructure:"CACHE_TTL_REVIEWS"`
	CacheTTLSessions         time.Duration `mapstructure:"CACHE_TTL_SESSIONS"`
	CacheTTLProfile          time.Duration `mapstructure:"CACHE_TTL_PROFILE"`
	CacheTTLDailyInsights    time.Duration `mapstructure:"CACHE_TTL_DAILY_INSIGHTS"`

	// Booking orchestration.
	MeetingBaseURL          string        `mapstructure:"MEETING_BASE_URL"`
	BookingRetryInitial     time.Duration `mapstructure:"BOOKING_RETRY_INITIAL"`
	BookingRetryMaxInterval time.Duration `mapstructure:"BOOKING_RETRY_MAX_INTERVAL"`
	BookingRetryMaxAttempts int           `mapstructure:"BOOKING_RETRY_MAX_ATTEMPTS"`
	BookingStepTimeout      time.Duration `mapstructure:"BOOKING_STEP_TIMEOUT"`
	NotificationStepTimeout time.Duration `mapstructure:"NOTIFICATION_STEP_TIMEOUT"`
	ReminderLead            time.Duration `mapstructure:"REMINDER_LEAD"`
	SessionTimezone         string        `mapstructure:"SESSION_TIMEZONE"`

	// Worker.
	WorkerEnabled     bool   `mapstructure:"WORKER_ENABLED"`
	WorkerConcurrency int    `mapstructure:"WORKER_CONCURRENCY"`
	ReconcileSchedule string `mapstructure:"RECONCILE_SCHEDULE"`

	// Notification channels.
	SMTPHost                string `mapstructure:"SMTP_HOST"`
	SMTPPort                int    `mapstructure:"SMTP_PORT"`
	SMTPUser                string `mapstructure:"SMTP_USER"`
	SMTPPass                string `mapstructure:"SMTP_PASS"`
	SMTPFrom                string `mapstructure:"SMTP_FROM"`
	PushProvider            string `mapstructure:"PUSH_PROVIDER"`
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
}

// LoadConfig reads .env (if any), config.yaml (if any) and the environment, in that order of precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.KeycloakJWKSURI == "" {
		cfg.KeycloakJWKSURI = cfg.KeycloakIssuerURI + "/protocol/openid-connect/certs"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8888")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	v.SetDefault("CORS_ORIGINS", []string{"http://localhost:3000"})

	v.SetDefault("DATABASE_DRIVER", "mongo")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "aroti")
	v.SetDefault("SEED_CATALOG", false)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)

	v.SetDefault("KEYCLOAK_ISSUER_URI", "http://localhost:8080/realms/aroti")
	v.SetDefault("KEYCLOAK_JWKS_URI", "")
	v.SetDefault("KEYCLOAK_AUDIENCE", "aroti-app")

	v.SetDefault("CACHE_TTL_SPECIALISTS", 30*time.Minute)
	v.SetDefault("CACHE_TTL_SPECIALIST_DETAIL", time.Hour)
	v.SetDefault("CACHE_TTL_REVIEWS", 10*time.Minute)
	v.SetDefault("CACHE_TTL_SESSIONS", 5*time.Minute)
	v.SetDefault("CACHE_TTL_PROFILE", 5*time.Minute)
	v.SetDefault("CACHE_TTL_DAILY_INSIGHTS", 24*time.Hour)

	v.SetDefault("MEETING_BASE_URL", "https://meet.aroti.app")
	v.SetDefault("BOOKING_RETRY_INITIAL", time.Second)
	v.SetDefault("BOOKING_RETRY_MAX_INTERVAL", time.Minute)
	v.SetDefault("BOOKING_RETRY_MAX_ATTEMPTS", 3)
	v.SetDefault("BOOKING_STEP_TIMEOUT", 30*time.Second)
	v.SetDefault("NOTIFICATION_STEP_TIMEOUT", time.Minute)
	v.SetDefault("REMINDER_LEAD", 24*time.Hour)
	v.SetDefault("SESSION_TIMEZONE", "UTC")

	v.SetDefault("WORKER_ENABLED", true)
	v.SetDefault("WORKER_CONCURRENCY", 10)
	v.SetDefault("RECONCILE_SCHEDULE", "@every 5m")

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_FROM", "no-reply@aroti.app")
	v.SetDefault("PUSH_PROVIDER", "none")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "mongo", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	switch c.PushProvider {
	case "fcm", "expo", "none":
	default:
		return fmt.Errorf("unsupported PUSH_PROVIDER %q", c.PushProvider)
	}
	if c.BookingRetryMaxAttempts < 1 {
		return fmt.Errorf("BOOKING_RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if _, err := time.LoadLocation(c.SessionTimezone); err != nil {
		return fmt.Errorf("invalid SESSION_TIMEZONE %q: %w", c.SessionTimezone, err)
	}
	return nil
}

// IsProduction checks if the environment is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location returns the time zone session dates and times are expressed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SessionTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
