// Package config loads runtime configuration from environment variables with
// sane defaults for local docker-compose use.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config groups the settings for every external collaborator of the pipeline.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	S3       S3Config
	Redis    RedisConfig
	NATS     NATSConfig
	OCR      OCRConfig
	Vision   VisionConfig
	Registry RegistryConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type S3Config struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	UseSSL      bool
	Region      string
	ImageBucket string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type NATSConfig struct {
	URL string
}

// OCRConfig points at the text-recognition HTTP service.
type OCRConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// VisionConfig points at an OpenAI-compatible chat-completions endpoint with
// a vision-capable model, used only when recognition finds no number.
type VisionConfig struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// RegistryConfig drives the browser session against the registry search page.
// The field ids and table selector mirror the registry page's markup and must
// be re-derived whenever the page changes.
type RegistryConfig struct {
	URL            string
	NumberFieldID  string
	NameFieldID    string
	TableSelector  string
	SettleInterval time.Duration
	ResultsTimeout time.Duration
	Headless       bool
}

type LogConfig struct {
	Level string
	JSON  bool
}

// Load builds the configuration from defaults overridden by environment
// variables (SERVER_PORT, DATABASE_HOST, REGISTRY_URL, ...).
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "verifications")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("s3.endpoint", "localhost:9000")
	v.SetDefault("s3.accesskey", "minioadmin")
	v.SetDefault("s3.secretkey", "minioadmin")
	v.SetDefault("s3.usessl", false)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.imagebucket", "verification-images")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("nats.url", "nats://localhost:4222")

	v.SetDefault("ocr.endpoint", "http://localhost:8090")
	v.SetDefault("ocr.apikey", "")
	v.SetDefault("ocr.timeout", 30*time.Second)

	v.SetDefault("vision.endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("vision.model", "gpt-4o-mini")
	v.SetDefault("vision.apikey", "")
	v.SetDefault("vision.timeout", 30*time.Second)

	v.SetDefault("registry.url", "https://greenbook.nafdac.gov.ng/")
	v.SetDefault("registry.numberfieldid", "search_nrn")
	v.SetDefault("registry.namefieldid", "search_product")
	v.SetDefault("registry.tableselector", "table.data-table")
	v.SetDefault("registry.settleinterval", 3*time.Second)
	v.SetDefault("registry.resultstimeout", 10*time.Second)
	v.SetDefault("registry.headless", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// DatabaseDSN renders the Postgres connection string for pgx.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User, c.Database.Password,
		c.Database.Host, c.Database.Port,
		c.Database.DBName, c.Database.SSLMode)
}

// ServerAddr renders the listen address for the HTTP API.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
