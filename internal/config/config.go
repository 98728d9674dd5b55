package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"Server"`
	Database  DatabaseConfig  `mapstructure:"Database"`
	Retention RetentionConfig `mapstructure:"Retention"`
	Logging   LoggingConfig   `mapstructure:"Logging"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"Port" validate:"required,numeric"`
	GRPCPort        string        `mapstructure:"GRPCPort" validate:"required,numeric"`
	ShutdownTimeout time.Duration `mapstructure:"ShutdownTimeout" validate:"gt=0"`
	RequestTimeout  time.Duration `mapstructure:"RequestTimeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	// Driver postgres для продакшена, memory для локального запуска
	Driver   string `mapstructure:"Driver" validate:"required,oneof=postgres memory"`
	Host     string `mapstructure:"Host" validate:"required_if=Driver postgres"`
	Port     string `mapstructure:"Port" validate:"required_if=Driver postgres"`
	User     string `mapstructure:"User" validate:"required_if=Driver postgres"`
	Password string `mapstructure:"Password"`
	Name     string `mapstructure:"Name" validate:"required_if=Driver postgres"`
	SSLMode  string `mapstructure:"SSLMode" validate:"oneof=disable require verify-ca verify-full"`
}

// RetentionConfig настройки автоматической очистки корзины
type RetentionConfig struct {
	Window    time.Duration `mapstructure:"Window" validate:"gt=0"`
	Schedule  string        `mapstructure:"Schedule" validate:"required"`
	BatchSize int           `mapstructure:"BatchSize" validate:"gte=1"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"Level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"Format" validate:"oneof=text json"`
}

type binding struct {
	key string
	env string
	def interface{}
}

var bindings = []binding{
	{"Server.Port", "HTTP_PORT", "2525"},
	{"Server.GRPCPort", "GRPC_PORT", "50051"},
	{"Server.ShutdownTimeout", "SHUTDOWN_TIMEOUT", 30 * time.Second},
	{"Server.RequestTimeout", "REQUEST_TIMEOUT", time.Minute},
	{"Database.Driver", "DATABASE_DRIVER", "postgres"},
	{"Database.Host", "DATABASE_HOST", ""},
	{"Database.Port", "DATABASE_PORT", "5432"},
	{"Database.User", "DATABASE_USER", ""},
	{"Database.Password", "DATABASE_PASSWORD", ""},
	{"Database.Name", "DATABASE_NAME", "filevault"},
	{"Database.SSLMode", "DATABASE_SSLMODE", "disable"},
	{"Retention.Window", "RETENTION_WINDOW", 30 * 24 * time.Hour},
	{"Retention.Schedule", "RETENTION_SCHEDULE", "@every 1m"},
	{"Retention.BatchSize", "RETENTION_BATCH_SIZE", 100},
	{"Logging.Level", "LOG_LEVEL", "info"},
	{"Logging.Format", "LOG_FORMAT", "text"},
}

var validate = validator.New()

func NewConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("env")

	// Порядок приоритета: переменные окружения, файл, значения по умолчанию
	for _, b := range bindings {
		v.SetDefault(b.key, b.def)
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", b.env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: using only environment variables: %v\n", err)
	}

	// В .env файле ключи плоские, переносим их во вложенную структуру
	for _, b := range bindings {
		if _, fromEnv := os.LookupEnv(b.env); fromEnv {
			continue
		}
		flat := strings.ToLower(b.env)
		if v.InConfig(flat) {
			v.Set(b.key, v.Get(flat))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)

	if err := validate.Struct(&cfg); err != nil {
		return nil, formatValidationError(err)
	}

	return &cfg, nil
}

func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return err
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// GetURL адрес базы в формате, который ожидает golang-migrate
func (c *DatabaseConfig) GetURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}
