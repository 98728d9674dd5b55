package s3

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Driver          string        `mapstructure:"STORAGE_DRIVER"`
	AccessKeyID     string        `mapstructure:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string        `mapstructure:"S3_SECRET_ACCESS_KEY"`
	Bucket          string        `mapstructure:"S3_BUCKET"`
	Endpoint        string        `mapstructure:"S3_ENDPOINT"`
	Region          string        `mapstructure:"S3_REGION"`
	UsePathStyle    bool          `mapstructure:"S3_USE_PATH_STYLE"`
	URLExpiry       time.Duration `mapstructure:"S3_URL_EXPIRY"`
	MemoryBaseURL   string        `mapstructure:"MEMORY_BASE_URL"`
}

func NewConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("STORAGE_DRIVER", "s3")
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_ENDPOINT", "https://storage.yandexcloud.net")
	v.SetDefault("S3_REGION", "ru-central1")
	v.SetDefault("S3_USE_PATH_STYLE", false)
	v.SetDefault("S3_URL_EXPIRY", 15*time.Minute)
	v.SetDefault("MEMORY_BASE_URL", "http://localhost:2525/blobs")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: storage config %s not read, using environment only: %v\n", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}

	switch cfg.Driver {
	case "memory":
		return &cfg, nil
	case "s3":
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	// Проверяем, что все необходимые поля заполнены
	if cfg.AccessKeyID == "" {
		return nil, fmt.Errorf("S3_ACCESS_KEY_ID is required")
	}
	if cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("S3_SECRET_ACCESS_KEY is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}

	return &cfg, nil
}
