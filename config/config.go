package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	SMTP      SMTPConfig
	Storage   StorageConfig
	Queue     QueueConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type AppConfig struct {
	Name        string        `mapstructure:"name"`
	Environment string        `mapstructure:"environment"`
	Debug       bool          `mapstructure:"debug"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Port        string        `mapstructure:"port"`
	BaseURL     string        `mapstructure:"base_url"`
	ClientURL   string        `mapstructure:"client_url"`
	LogsPath    string        `mapstructure:"logs_path"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// AuthConfig holds the token signing secret, the lifetime of each token
// kind and the bcrypt work factor.
type AuthConfig struct {
	Secret               string        `mapstructure:"secret"`
	AccessTokenTTL       time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL      time.Duration `mapstructure:"refresh_token_ttl"`
	VerificationCodeTTL  time.Duration `mapstructure:"verification_code_ttl"`
	PasswordResetCodeTTL time.Duration `mapstructure:"password_reset_code_ttl"`
	SaltWorkFactor       int           `mapstructure:"salt_work_factor"`
	AdminEmail           string        `mapstructure:"admin_email"`
	AdminPassword        string        `mapstructure:"admin_password"`
	// OAuthAssertionSecret is shared with the OAuth proxy. Empty disables
	// the OAuth callback.
	OAuthAssertionSecret string `mapstructure:"oauth_assertion_secret"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type StorageConfig struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Endpoint        string `mapstructure:"endpoint"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
}

type QueueConfig struct {
	Name        string        `mapstructure:"name"`
	MaxRetry    int           `mapstructure:"max_retry"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

type RateLimitConfig struct {
	Request  int `mapstructure:"request"`
	Duration int `mapstructure:"duration"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func LoadConfig() (*Config, error) {
	// Missing .env is fine, the process environment is used as is
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "ahlanjobs-api"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
			Timeout:     getEnvAsDuration("APP_TIMEOUT", 30*time.Second),
			BaseURL:     getEnv("APP_BASE_URL", "http://localhost:8080"),
			ClientURL:   getEnv("APP_CLIENT_URL", "http://localhost:3000"),
			LogsPath:    getEnv("LOGS_PATH", "./logs"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "ahlanjobs"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", true),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			Database:     getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getEnvAsDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
		},
		Auth: AuthConfig{
			Secret:               getEnv("AUTH_SECRET", "default_secret_key_change_in_production"),
			AccessTokenTTL:       getEnvAsDuration("AUTH_ACCESS_TOKEN_TTL", time.Hour),
			RefreshTokenTTL:      getEnvAsDuration("AUTH_REFRESH_TOKEN_TTL", 8760*time.Hour),
			VerificationCodeTTL:  getEnvAsDuration("AUTH_VERIFICATION_CODE_TTL", 24*time.Hour),
			PasswordResetCodeTTL: getEnvAsDuration("AUTH_PASSWORD_RESET_TTL", time.Hour),
			SaltWorkFactor:       getEnvAsInt("AUTH_SALT_WORK_FACTOR", 10),
			AdminEmail:           getEnv("ADMIN_EMAIL", "admin@ahlanjobs.com"),
			AdminPassword:        getEnv("ADMIN_PASSWORD", ""),
			OAuthAssertionSecret: getEnv("AUTH_OAUTH_ASSERTION_SECRET", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnvAsInt("SMTP_PORT", 465),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@ahlanjobs.com"),
		},
		Storage: StorageConfig{
			Region:          getEnv("AWS_REGION", "eu-central-1"),
			Bucket:          getEnv("AWS_BUCKET_NAME", "ahlanjobs"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("AWS_ENDPOINT", ""),
			PublicBaseURL:   getEnv("AWS_PUBLIC_BASE_URL", ""),
		},
		Queue: QueueConfig{
			Name:        getEnv("QUEUE_NAME", "email"),
			MaxRetry:    getEnvAsInt("QUEUE_MAX_RETRY", 3),
			PollTimeout: getEnvAsDuration("QUEUE_POLL_TIMEOUT", 5*time.Second),
		},
		RateLimit: RateLimitConfig{
			Request:  getEnvAsInt("RATE_LIMIT_MAX_REQUEST", 100),
			Duration: getEnvAsInt("RATE_LIMIT_DURATION", 60),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
	}

	if config.IsProduction() && config.Auth.Secret == "default_secret_key_change_in_production" {
		return nil, fmt.Errorf("AUTH_SECRET must be set in production")
	}
	if s := config.Auth.OAuthAssertionSecret; s != "" && s == config.Auth.Secret {
		return nil, fmt.Errorf("AUTH_OAUTH_ASSERTION_SECRET must differ from AUTH_SECRET")
	}

	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (c *Config) DatabaseConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
