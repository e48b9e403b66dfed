// Package config loads server settings from defaults, an optional YAML file
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"

	"github.com/emilythestrangee/minifeed/backend/internal/database"
	"github.com/emilythestrangee/minifeed/backend/internal/events"
	"github.com/emilythestrangee/minifeed/backend/internal/media"
	"github.com/emilythestrangee/minifeed/backend/internal/telemetry"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	MediaLocal = "local"
	MediaMinio = "minio"
)

type Config struct {
	Port      string             `yaml:"port"`
	LogLevel  string             `yaml:"log_level"`
	Storage   StorageConfig      `yaml:"storage"`
	Database  database.Config    `yaml:"database"`
	Auth      AuthConfig         `yaml:"auth"`
	Media     MediaConfig        `yaml:"media"`
	Redis     RedisConfig        `yaml:"redis"`
	Kafka     events.KafkaConfig `yaml:"kafka"`
	Telemetry telemetry.Config   `yaml:"telemetry"`
	Feed      FeedConfig         `yaml:"feed"`
}

type StorageConfig struct {
	Driver  string `yaml:"driver"`
	DataDir string `yaml:"data_dir"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	// RequireToken makes a bearer token mandatory on mutating routes and the feed.
	RequireToken bool `yaml:"require_token"`
}

type MediaConfig struct {
	Driver    string            `yaml:"driver"`
	UploadDir string            `yaml:"upload_dir"`
	Minio     media.MinioConfig `yaml:"minio"`
}

// RedisConfig enables per-user rate limiting when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Limit    int64         `yaml:"limit"`
	Window   time.Duration `yaml:"window"`
}

type FeedConfig struct {
	TopN     int `yaml:"top_n"`
	PageSize int `yaml:"page_size"`
}

func Default() Config {
	return Config{
		Port:     "3001",
		LogLevel: "info",
		Storage: StorageConfig{
			Driver:  StorageFile,
			DataDir: "data",
		},
		Database: database.Config{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "minifeed",
			SSLMode: "disable",
		},
		Auth: AuthConfig{
			JWTSecret: "minifeed-dev-secret",
			TokenTTL:  72 * time.Hour,
		},
		Media: MediaConfig{
			Driver:    MediaLocal,
			UploadDir: "data/uploads",
			Minio:     media.MinioConfig{Bucket: "minifeed-uploads"},
		},
		Redis: RedisConfig{
			Limit:  120,
			Window: time.Minute,
		},
		Kafka: events.KafkaConfig{Topic: "minifeed.events"},
		Telemetry: telemetry.Config{
			ServiceName: "minifeed",
			SampleRatio: 1.0,
		},
		Feed: FeedConfig{
			TopN:     90,
			PageSize: 15,
		},
	}
}

// Load merges defaults, the YAML file at path (skipped when path is empty or
// the file does not exist) and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadEnv(cfg *Config) {
	setString(&cfg.Port, "PORT")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.DataDir, "DATA_DIR")

	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Name, "DB_NAME")
	setString(&cfg.Database.SSLMode, "DB_SSLMODE")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "TOKEN_TTL")
	setBool(&cfg.Auth.RequireToken, "AUTH_REQUIRE_TOKEN")

	setString(&cfg.Media.Driver, "MEDIA_DRIVER")
	setString(&cfg.Media.UploadDir, "UPLOAD_DIR")
	setString(&cfg.Media.Minio.Endpoint, "S3_ENDPOINT")
	setString(&cfg.Media.Minio.AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.Media.Minio.SecretKey, "S3_SECRET_KEY")
	setString(&cfg.Media.Minio.Bucket, "S3_BUCKET_NAME")
	setBool(&cfg.Media.Minio.UseSSL, "S3_USE_SSL")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Redis.Limit = n
		}
	}
	setDuration(&cfg.Redis.Window, "RATE_LIMIT_WINDOW")

	setString(&cfg.Kafka.Brokers, "KAFKA_BOOTSTRAP_SERVERS")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")

	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.Telemetry.ServiceName, "OTEL_SERVICE_NAME")
	setString(&cfg.Telemetry.Environment, "ENV")
	if v := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Telemetry.SampleRatio = f
		}
	}

	setInt(&cfg.Feed.TopN, "FEED_TOP_N")
	setInt(&cfg.Feed.PageSize, "FEED_PAGE_SIZE")
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case StorageFile:
		if c.Storage.DataDir == "" {
			errs = append(errs, errors.New("storage.data_dir is required for the file driver"))
		}
	case StoragePostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("database.host and database.name are required for the postgres driver"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	switch c.Media.Driver {
	case MediaLocal:
		if c.Media.UploadDir == "" {
			errs = append(errs, errors.New("media.upload_dir is required for the local driver"))
		}
	case MediaMinio:
		if c.Media.Minio.Endpoint == "" || c.Media.Minio.Bucket == "" {
			errs = append(errs, errors.New("media.minio.endpoint and media.minio.bucket are required for the minio driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown media driver %q", c.Media.Driver))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Feed.TopN < 1 || c.Feed.PageSize < 1 {
		errs = append(errs, errors.New("feed.top_n and feed.page_size must be positive"))
	}
	if c.Redis.Addr != "" && (c.Redis.Limit < 1 || c.Redis.Window <= 0) {
		errs = append(errs, errors.New("redis.limit and redis.window must be positive when rate limiting is enabled"))
	}

	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
