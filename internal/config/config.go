package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Reply    ReplyConfig
	Ticket   TicketConfig
	Logger   LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig holds gateway transport connection values.
type NATSConfig struct {
	URL            string
	Token          string
	RequestTimeout time.Duration
	SubjectPrefix  string
}

// ReplyConfig configures the automated reply engine.
type ReplyConfig struct {
	OpenAIAPIKey   string
	Model          string
	MaxLength      int
	ResponseDelay  time.Duration
	ContextTTL     time.Duration
	ContextWindow  int
	RequestTimeout time.Duration
}

// TicketConfig controls lifecycle behavior.
type TicketConfig struct {
	CooldownSeconds  int
	CounterPrefix    string
	CounterWidth     int
	CategoryName     string
	LogsChannelName  string
	ChannelNameLimit int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-lifecycle-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://127.0.0.1:4222"),
			Token:          os.Getenv("NATS_TOKEN"),
			RequestTimeout: time.Duration(getEnvAsInt("NATS_REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
			SubjectPrefix:  getEnv("NATS_SUBJECT_PREFIX", "provision"),
		},
		Reply: ReplyConfig{
			OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
			Model:          getEnv("REPLY_MODEL", "gpt-4o-mini"),
			MaxLength:      getEnvAsInt("REPLY_MAX_LENGTH", 1500),
			ResponseDelay:  time.Duration(getEnvAsInt("REPLY_DELAY_MS", 2000)) * time.Millisecond,
			ContextTTL:     time.Duration(getEnvAsInt("REPLY_CONTEXT_TTL_MINUTES", 30)) * time.Minute,
			ContextWindow:  getEnvAsInt("REPLY_CONTEXT_WINDOW", 6),
			RequestTimeout: time.Duration(getEnvAsInt("REPLY_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Ticket: TicketConfig{
			CooldownSeconds:  getEnvAsInt("TICKET_COOLDOWN_SECONDS", 60),
			CounterPrefix:    getEnv("TICKET_COUNTER_PREFIX", "TICKET-"),
			CounterWidth:     getEnvAsInt("TICKET_COUNTER_WIDTH", 4),
			CategoryName:     getEnv("TICKET_CATEGORY_NAME", "tickets"),
			LogsChannelName:  getEnv("TICKET_LOGS_CHANNEL_NAME", "ticket-logs"),
			ChannelNameLimit: getEnvAsInt("TICKET_CHANNEL_NAME_LIMIT", 100),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Cooldown returns the minimum interval between ticket creations per user.
func (t TicketConfig) Cooldown() time.Duration {
	return time.Duration(t.CooldownSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
