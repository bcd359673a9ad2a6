package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	DB      DBConfig      `yaml:"db"`
	Auth    AuthConfig    `yaml:"auth"`
	Uploads UploadsConfig `yaml:"uploads"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Redis   RedisConfig   `yaml:"redis"`
	Seed    SeedConfig    `yaml:"seed"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"` //nolint:gosec // config struct, not hardcoded cred
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	// JWTSecret must come from deployment configuration; there is no default.
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

// KafkaConfig is optional: no brokers means no event publishing and no
// reminder worker.
type KafkaConfig struct {
	Brokers          []string      `yaml:"brokers"`
	ReminderInterval time.Duration `yaml:"reminder_interval"`
	ReminderWindow   time.Duration `yaml:"reminder_window"`
}

// RedisConfig is optional: an empty address disables the lesson cache.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	LessonTTL time.Duration `yaml:"lesson_ttl"`
}

type SeedConfig struct {
	Enabled bool `yaml:"enabled"`
}

func Load() (*Config, error) {
	var cfg Config

	configPath := getConfigPath()
	if data, err := os.ReadFile(configPath); err == nil { //nolint:gosec // config path from env
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	setDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	possiblePaths := []string{
		"config/config.yaml",
		"/etc/classroom-service/config.yaml",
		"./config.yaml",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "config.yaml"
}

func setDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 30 * time.Minute
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 10
	}
	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = "uploads"
	}
	if cfg.Kafka.ReminderInterval == 0 {
		cfg.Kafka.ReminderInterval = 15 * time.Minute
	}
	if cfg.Kafka.ReminderWindow == 0 {
		cfg.Kafka.ReminderWindow = 24 * time.Hour
	}
	if cfg.Redis.LessonTTL == 0 {
		cfg.Redis.LessonTTL = 5 * time.Minute
	}
}

func overrideFromEnv(cfg *Config) {
	if val := os.Getenv("HTTP_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.HTTP.Port = port
		}
	}

	if val := os.Getenv("DB_HOST"); val != "" {
		cfg.DB.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.DB.Port = port
		}
	}
	if val := os.Getenv("DB_USER"); val != "" {
		cfg.DB.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		cfg.DB.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		cfg.DB.DBName = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		cfg.DB.SSLMode = val
	}

	if val := os.Getenv("JWT_SECRET"); val != "" {
		cfg.Auth.JWTSecret = val
	}
	if val := os.Getenv("TOKEN_TTL"); val != "" {
		if ttl, err := time.ParseDuration(val); err == nil {
			cfg.Auth.TokenTTL = ttl
		}
	}

	if val := os.Getenv("UPLOAD_DIR"); val != "" {
		cfg.Uploads.Dir = val
	}

	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		cfg.Kafka.Brokers = strings.Split(val, ",")
	}

	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
	}

	if val := os.Getenv("SEED_DEMO_DATA"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			cfg.Seed.Enabled = enabled
		}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.DBName == "" {
		return fmt.Errorf("database configuration is incomplete")
	}

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret must be set")
	}

	return nil
}
