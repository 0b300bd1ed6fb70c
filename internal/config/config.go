package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBSQLitePath      string
	DBLogSQL          bool
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	SnowflakeNode int64

	Pagination PaginationConfig
	Scheduler  SchedulerConfig
}

// SchedulerConfig drives the background reconcile worker. RedisAddr is
// optional; without it jobs run unlocked, which is only safe for a single
// worker.
type SchedulerConfig struct {
	IntervalSeconds int
	OverdueBatch    int
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
}

// PaginationConfig carries list defaults explicitly instead of reading them
// from the inbound request.
type PaginationConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Module exposes the loaded Config to the fx graph.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewBillingConfigHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "repairdesk"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "repairdesk"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBSQLitePath:      getenv("DATABASE_SQLITE_PATH", "repairdesk.db"),
		DBLogSQL:          getenvBool("DATABASE_LOG_SQL", false),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		SnowflakeNode:     getenvInt64("SNOWFLAKE_NODE", 1),
		Pagination: PaginationConfig{
			DefaultPageSize: getenvInt("DEFAULT_PAGE_SIZE", 15),
			MaxPageSize:     getenvInt("MAX_PAGE_SIZE", 250),
		},
		Scheduler: SchedulerConfig{
			IntervalSeconds: getenvInt("SCHEDULER_INTERVAL_SECONDS", 300),
			OverdueBatch:    getenvInt("SCHEDULER_OVERDUE_BATCH", 100),
			RedisAddr:       getenv("REDIS_ADDR", ""),
			RedisPassword:   getenv("REDIS_PASSWORD", ""),
			RedisDB:         getenvInt("REDIS_DB", 0),
		},
	}

	return cfg
}

// IsProduction reports whether the app runs in a production environment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// PageSize clamps a requested page size into the configured bounds.
func (p PaginationConfig) PageSize(requested int) int {
	def := p.DefaultPageSize
	if def <= 0 {
		def = 15
	}
	if requested <= 0 {
		return def
	}
	if p.MaxPageSize > 0 && requested > p.MaxPageSize {
		return p.MaxPageSize
	}
	return requested
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
