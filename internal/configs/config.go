package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type DBconfig struct {
	Backend    string `envconfig:"STORAGE_BACKEND" default:"postgres"` // postgres | memory
	URL        string `envconfig:"DATABASE_URL"`
	MaxConns   int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	UsersTable string `envconfig:"USERS_TABLE" default:"users"`
	// владельцы, известные хранилищу в памяти (для локального запуска)
	SeedOwnerIDs []string `envconfig:"SEED_OWNER_IDS"`
}

type RESTconfig struct {
	PORT               string   `envconfig:"PORT" default:"8084"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

type ObjectStoreConfig struct {
	Backend           string        `envconfig:"OBJECT_STORE_BACKEND" default:"s3"` // s3 | memory
	Bucket            string        `envconfig:"S3_BUCKET"`
	Region            string        `envconfig:"S3_REGION" default:"us-east-1"`
	Endpoint          string        `envconfig:"S3_ENDPOINT"`
	AccessKeyID       string        `envconfig:"S3_ACCESS_KEY_ID"`
	SecretAccessKey   string        `envconfig:"S3_SECRET_ACCESS_KEY"`
	UsePathStyle      bool          `envconfig:"S3_USE_PATH_STYLE" default:"false"`
	PublicBaseURL     string        `envconfig:"S3_PUBLIC_BASE_URL"`
	MaxImageBytes     int64         `envconfig:"IMAGE_MAX_BYTES" default:"5242880"`
	FetchTimeout      time.Duration `envconfig:"IMAGE_FETCH_TIMEOUT" default:"15s"`
	FetchAllowPrivate bool          `envconfig:"IMAGE_FETCH_ALLOW_PRIVATE" default:"false"` // только для локальной разработки
	CleanupTimeout    time.Duration `envconfig:"COMPENSATION_TIMEOUT" default:"30s"`
}

type CacheConfig struct {
	MaxSize       int64         `envconfig:"CACHE_MAX_SIZE" default:"1000"`
	LocalTTL      time.Duration `envconfig:"CACHE_LOCAL_TTL" default:"30s"`
	TTL           time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	MemcacheHosts []string      `envconfig:"MEMCACHE_HOSTS"`
}

type RabbitMQConfig struct {
	Enabled bool   `envconfig:"RABBITMQ_ENABLED" default:"false"`
	URL     string `envconfig:"RABBITMQ_URL"`
}

type AmenitiesConfig struct {
	Names   []string `envconfig:"AMENITIES"` // пусто - встроенный справочник
	Version string   `envconfig:"AMENITIES_VERSION"`
}

type StdoutLogConfig struct {
	Level string `envconfig:"STDOUT_LOG_LEVEL" default:"debug"`
	JSON  bool   `envconfig:"STDOUT_LOG_JSON" default:"false"`
}

type FluentBitConfig struct {
	Enabled bool   `envconfig:"FLUENTBIT_ENABLED" default:"false"`
	Host    string `envconfig:"FLUENTBIT_HOST" default:"localhost"`
	Port    int    `envconfig:"FLUENTBIT_PORT" default:"24224"`
	Level   string `envconfig:"FLUENTBIT_LOG_LEVEL" default:"info"`
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string `envconfig:"APP_NAME" default:"listing-service"`
	Database     DBconfig
	Rest         RESTconfig
	ObjectStore  ObjectStoreConfig
	Cache        CacheConfig
	RabbitMQ     RabbitMQConfig
	Amenities    AmenitiesConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
}

// LoadConfig читает .env (если он есть) и переменные окружения.
// Переменные окружения имеют приоритет над .env.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	if err := godotenv.Load(envPath...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not load .env file (path: %v): %w", envPath, err)
		}
		log.Printf("Info: .env file not found (path: %v), using process environment\n", envPath)
	}

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.Database.Backend {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required for postgres backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Database.Backend)
	}

	switch c.ObjectStore.Backend {
	case "s3":
		if c.ObjectStore.Bucket == "" {
			return fmt.Errorf("S3_BUCKET environment variable is required for s3 backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown OBJECT_STORE_BACKEND %q", c.ObjectStore.Backend)
	}

	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" {
		return fmt.Errorf("RABBITMQ_URL is required when RABBITMQ_ENABLED is true")
	}

	if c.FluentBit.Enabled && c.FluentBit.Host == "" {
		log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
		c.FluentBit.Enabled = false
	}
	return nil
}
