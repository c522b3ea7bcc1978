package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// AppConfig identifies the deployment this instance reconciles: one app
// name + type pair against one region and bucket.
type AppConfig struct {
	Name   string `mapstructure:"name"`
	Type   string `mapstructure:"type"`
	Region string `mapstructure:"region"`
	Bucket string `mapstructure:"bucket"`
	// AutoProvision allows user operations against an unprovisioned app
	// to trigger a full provision run instead of failing.
	AutoProvision bool `mapstructure:"auto_provision"`
	// WriteAccess is the intent applied to the role permission policy on
	// every provision run.
	WriteAccess bool `mapstructure:"write_access"`
}

// DatabaseConfig configures the optional provisioning audit trail.
// An empty URL disables it.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// KafkaConfig configures the optional lifecycle event producer.
// Empty brokers disable it.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type AuthConfig struct {
	// AdminSecret signs admin API tokens (HS256). Empty disables auth.
	AdminSecret string `mapstructure:"admin_secret"`
}

// Load reads configuration from environment variables and config files.
// Environment variables override file values. Prefix: FOMO_ADMIN_
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("app.name", "fomomon")
	v.SetDefault("app.type", "phone")
	v.SetDefault("app.region", "ap-south-1")
	v.SetDefault("app.bucket", "fomomon")
	v.SetDefault("app.auto_provision", false)
	v.SetDefault("app.write_access", true)
	v.SetDefault("kafka.topic", "iam-events")

	// Environment variables (e.g. APP_REGION -> app.region)
	v.SetEnvPrefix("FOMO_ADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also support the legacy deployment env vars without prefix
	v.BindEnv("app.name", "APP_NAME")
	v.BindEnv("app.type", "APP_TYPE")
	v.BindEnv("app.region", "AWS_REGION")
	v.BindEnv("app.bucket", "FOMOMON_BUCKET")
	v.BindEnv("app.auto_provision", "AUTO_CREATE_POOLS")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("auth.admin_secret", "ADMIN_SECRET")
	v.BindEnv("server.port", "PORT")

	// Try loading config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // Not required

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
