package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string
	DatabaseDriver string
	DatabaseURL    string
	JWTKey         string
	LogLevel       string
	LogFormat      string
	CSVStrict      bool
	RedisAddr      string
	RedisTTL       time.Duration
	KafkaBroker    string
	KafkaTopic     string
}

// Load reads the environment, after merging a .env file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("UPLOAD_CSV_STRICT", true)
	v.SetDefault("REDIS_TTL", time.Minute)

	cfg := &Config{
		Port:           v.GetString("PORT"),
		DatabaseDriver: v.GetString("DATABASE_DRIVER"),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		JWTKey:         v.GetString("JWT_KEY"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		CSVStrict:      v.GetBool("UPLOAD_CSV_STRICT"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisTTL:       v.GetDuration("REDIS_TTL"),
		KafkaBroker:    v.GetString("KAFKA_BROKER"),
		KafkaTopic:     v.GetString("KAFKA_TOPIC"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	if cfg.JWTKey == "" {
		return nil, errors.New("JWT_KEY environment variable is required")
	}
	return cfg, nil
}

// KafkaEnabled reports whether both broker and topic are configured.
func (c *Config) KafkaEnabled() bool {
	return c.KafkaBroker != "" && c.KafkaTopic != ""
}
