package auth

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	JWTSecret string `mapstructure:"JWT_SECRET"`
	Issuer    string `mapstructure:"JWT_ISSUER"`
}

func NewConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: auth config %s not read, using environment only: %v\n", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &cfg, nil
}
