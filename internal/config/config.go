package config

import (
	"fmt"

	"github.com/OFFIS-RIT/interactome/internal/util"
	"github.com/OFFIS-RIT/interactome/pkg/loader"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

type RabbitMQConfig struct {
	User     string
	Password string
	Host     string
	Port     string
}

// URL is the AMQP connection URL.
func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Password, c.Host, c.Port)
}

type AuthConfig struct {
	MasterAPIKey   string
	MasterUserID   string
	MasterUserRole string
	AuthURL        string
}

// Config is read once per binary from the environment.
type Config struct {
	Debug     bool
	LogFormat string

	StoreDriver    string
	DatabaseURL    string
	SQLitePath     string
	MigrationsPath string
	SourceRoot     string

	LoadBatchSize    int
	PreferredSources []string

	Port string

	Auth     AuthConfig
	S3       S3Config
	RabbitMQ RabbitMQConfig
}

// Load reads the configuration. Call util.LoadEnv first to pick up a .env
// file.
func Load() Config {
	return Config{
		Debug:     util.GetEnvBool("DEBUG", false),
		LogFormat: util.GetEnvString("LOG_FORMAT", "text"),

		StoreDriver:    util.GetEnvString("STORE_DRIVER", DriverPostgres),
		DatabaseURL:    util.GetEnv("DATABASE_URL"),
		SQLitePath:     util.GetEnvString("SQLITE_PATH", "interactome.db"),
		SourceRoot:     util.GetEnv("LOAD_SOURCE_ROOT"),
		MigrationsPath: util.GetEnvString("MIGRATIONS_PATH", "file://migrations"),

		LoadBatchSize:    util.GetEnvInt("LOAD_BATCH_SIZE", loader.DefaultBatchSize),
		PreferredSources: util.GetEnvList("ALIAS_PREFERRED_SOURCES"),

		Port: util.GetEnvString("PORT", "8080"),

		Auth: AuthConfig{
			MasterAPIKey:   util.GetEnv("MASTER_API_KEY"),
			MasterUserID:   util.GetEnv("MASTER_USER_ID"),
			MasterUserRole: util.GetEnv("MASTER_USER_ROLE"),
			AuthURL:        util.GetEnv("AUTH_URL"),
		},
		S3: S3Config{
			Region:    util.GetEnv("AWS_REGION"),
			Endpoint:  util.GetEnv("AWS_ENDPOINT"),
			AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
			SecretKey: util.GetEnv("AWS_SECRET_KEY"),
			Bucket:    util.GetEnv("AWS_BUCKET"),
		},
		RabbitMQ: RabbitMQConfig{
			User:     util.GetEnv("RABBITMQ_USER"),
			Password: util.GetEnv("RABBITMQ_PASSWORD"),
			Host:     util.GetEnv("RABBITMQ_HOST"),
			Port:     util.GetEnvString("RABBITMQ_PORT", "5672"),
		},
	}
}

// Validate checks the settings every binary needs.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store driver %q", c.StoreDriver)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.LoadBatchSize <= 0 {
		return fmt.Errorf("LOAD_BATCH_SIZE must be positive, got %d", c.LoadBatchSize)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}
