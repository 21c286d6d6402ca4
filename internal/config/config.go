package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	BackendFS = "fs"
	BackendS3 = "s3"
)

type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	DBDriver string `mapstructure:"DB_DRIVER"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBScheme   string `mapstructure:"DB_SCHEME"`

	// --- Хранилище файлов ---
	StoreBackend     string `mapstructure:"STORE_BACKEND"`
	StoreDir         string `mapstructure:"STORE_DIR"`
	StoreMaxAttempts int    `mapstructure:"STORE_MAX_ATTEMPTS"`

	// --- S3 ---
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`
	S3PathStyle bool   `mapstructure:"S3_PATH_STYLE"`

	// --- Redis (пустой адрес: кеш выключен) ---
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	CacheTTL      int    `mapstructure:"CACHE_TTL"`

	// --- Лимиты загрузки ---
	UploadMaxBytes int64 `mapstructure:"UPLOAD_MAX_BYTES"`
	GUIDMaxBytes   int64 `mapstructure:"GUID_MAX_BYTES"`
}

// String реализует интерфейс Stringer
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  AppPort: %s\n", c.AppPort))
	sb.WriteString(fmt.Sprintf("  DBDriver: %s\n", c.DBDriver))
	sb.WriteString(fmt.Sprintf("  DBHost: %s\n", c.DBHost))
	sb.WriteString(fmt.Sprintf("  DBPort: %d\n", c.DBPort))
	sb.WriteString(fmt.Sprintf("  DBUser: %s\n", c.DBUser))
	sb.WriteString(fmt.Sprintf("  DBName: %s\n", c.DBName))
	sb.WriteString(fmt.Sprintf("  DBScheme: %s\n", c.DBScheme))
	sb.WriteString(fmt.Sprintf("  DBPassword: %s\n", mask(c.DBPassword)))

	sb.WriteString(fmt.Sprintf("  StoreBackend: %s\n", c.StoreBackend))
	sb.WriteString(fmt.Sprintf("  StoreDir: %s\n", c.StoreDir))
	sb.WriteString(fmt.Sprintf("  StoreMaxAttempts: %d\n", c.StoreMaxAttempts))

	// S3
	sb.WriteString(fmt.Sprintf("  S3Endpoint: %s\n", c.S3Endpoint))
	sb.WriteString(fmt.Sprintf("  S3Region: %s\n", c.S3Region))
	sb.WriteString(fmt.Sprintf("  S3Bucket: %s\n", c.S3Bucket))
	sb.WriteString(fmt.Sprintf("  S3AccessKey: %s\n", mask(c.S3AccessKey)))
	sb.WriteString(fmt.Sprintf("  S3SecretKey: %s\n", mask(c.S3SecretKey)))
	sb.WriteString(fmt.Sprintf("  S3UseSSL: %v\n", c.S3UseSSL))
	sb.WriteString(fmt.Sprintf("  S3PathStyle: %v\n", c.S3PathStyle))

	// Redis
	sb.WriteString(fmt.Sprintf("  RedisAddr: %s\n", c.RedisAddr))
	sb.WriteString(fmt.Sprintf("  RedisDB: %d\n", c.RedisDB))
	sb.WriteString(fmt.Sprintf("  RedisPassword: %s\n", mask(c.RedisPassword)))
	sb.WriteString(fmt.Sprintf("  CacheTTL: %d\n", c.CacheTTL))

	sb.WriteString(fmt.Sprintf("  UploadMaxBytes: %d\n", c.UploadMaxBytes))
	sb.WriteString(fmt.Sprintf("  GUIDMaxBytes: %d\n", c.GUIDMaxBytes))

	return sb.String()
}

// секреты маскируем
func mask(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "********"
}

// LoadFromEnv загружает конфигурацию из переменных окружения
func LoadFromEnv() (*Config, error) {
	// Загружаем .env только для локальной разработки
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.New("failed to load .env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	// Регистрируем интересующие ключи окружения
	keys := []string{
		"APP_ENV", "APP_PORT",
		"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SCHEME",
		"STORE_BACKEND", "STORE_DIR", "STORE_MAX_ATTEMPTS",
		"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
		"S3_USE_SSL", "S3_PATH_STYLE",
		"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD", "CACHE_TTL",
		"UPLOAD_MAX_BYTES", "GUID_MAX_BYTES",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":1972")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SCHEME", "public")
	v.SetDefault("STORE_BACKEND", BackendFS)
	v.SetDefault("STORE_DIR", "./data/files")
	v.SetDefault("STORE_MAX_ATTEMPTS", 5)
	v.SetDefault("CACHE_TTL", 60)
	v.SetDefault("UPLOAD_MAX_BYTES", int64(1<<30))
	v.SetDefault("GUID_MAX_BYTES", int64(1024))
}

// Validate проверяет значения, которые нельзя исправить дефолтами
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	switch c.StoreBackend {
	case BackendFS:
		if c.StoreDir == "" {
			return errors.New("STORE_DIR is required for fs backend")
		}
	case BackendS3:
		if c.S3Endpoint == "" || c.S3Bucket == "" {
			return errors.New("S3_ENDPOINT and S3_BUCKET are required for s3 backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.StoreMaxAttempts <= 0 {
		return fmt.Errorf("STORE_MAX_ATTEMPTS must be positive, got %d", c.StoreMaxAttempts)
	}
	if c.UploadMaxBytes <= 0 || c.GUIDMaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES and GUID_MAX_BYTES must be positive")
	}
	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
