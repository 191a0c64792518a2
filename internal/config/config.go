package config // package config loads application configuration from environment variables

import (
	"errors"  // errors joins every missing variable into one report
	"fmt"     // fmt formats configuration errors
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types

	"github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Redis, rate limit and cache settings are
// loaded separately by their own helpers in this package.
type Config struct {
	Env         string // application environment (e.g. "dev", "prod")
	Port        string // HTTP port to listen on
	StoreDriver string // "mysql" or "memory"
	DBUser      string // database username
	DBPass      string // database password (optional)
	DBHost      string // database host address
	DBPort      string // database port number
	DBName      string // database name
	DBMigrate   bool   // apply the embedded schema at startup
	JWTSecret   string // secret used to verify JWTs

	StrictTableStatus bool // refuse bookings on tables flagged BOOKED

	AMQPURL         string // RabbitMQ connection URL
	EventsEnabled   bool   // publish domain events to RabbitMQ
	ConsumerEnabled bool   // run the in-process event log consumer
	EventsLogDir    string // directory of venue.log
	EventsBuffer    int    // pending events held by the async dispatcher
}

// Load reads a .env file if one exists, then the environment.  Every
// missing or malformed required variable is reported in the returned
// error instead of stopping at the first one.
func Load() (Config, error) {
	_ = godotenv.Load() // load .env if it exists

	var errs []error
	must := func(key string) string {
		v, err := require(key)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := Config{
		Env:               envStr("APP_ENV", "dev"),
		Port:              envStr("APP_PORT", "8080"),
		StoreDriver:       envStr("STORE_DRIVER", DriverMySQL),
		DBPass:            os.Getenv("DB_PASS"),
		DBMigrate:         envBool("DB_MIGRATE", false),
		JWTSecret:         must("JWT_SECRET"),
		StrictTableStatus: envBool("RESERVATION_STRICT_TABLE_STATUS", false),
		AMQPURL:           amqpURL(),
		EventsEnabled:     envBool("EVENTS_ENABLED", false),
		ConsumerEnabled:   envBool("EVENTS_CONSUMER_ENABLED", false),
		EventsLogDir:      envStr("EVENTS_LOG_DIR", "logs"),
		EventsBuffer:      envInt("EVENTS_BUFFER", 256),
	}

	switch cfg.StoreDriver {
	case DriverMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
		if cfg.DBPort != "" {
			if _, err := strconv.Atoi(cfg.DBPort); err != nil {
				errs = append(errs, fmt.Errorf("invalid int for DB_PORT: %q", cfg.DBPort))
			}
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver))
	}
	return cfg, errors.Join(errs...)
}

// require retrieves the value of a required environment variable.
func require(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return v, nil
}

// amqpURL prefers RABBITMQ_URL, then AMQP_URL.  Empty means the
// publisher's default local broker.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}
