package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port string

	DBUser           string
	DBPassword       string
	DBHost           string
	DBPort           string
	DBName           string
	DBConnectTimeout time.Duration
	SQLitePath       string

	FrontendURL string

	JWTSecret string
	JWTTTL    time.Duration

	RedisURL string

	RabbitMQURL      string
	OrderExchange    string
	OrderStatusQueue string
	DeadLetterQueue  string

	RateLimitPerMinute int
	RateLimitBurst     int
}

// Load reads an optional .env file before building the Config. A missing
// file is not an error.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)
	return LoadConfig()
}

func LoadConfig() *Config {
	return &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "5000"),

		DBUser:           getEnv("DB_USER", "root"),
		DBPassword:       getEnvFromFile("DB_PASSWORD_FILE", "DB_PASSWORD", ""),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "3306"),
		DBName:           getEnv("DB_NAME", "ecommerce"),
		DBConnectTimeout: getDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		SQLitePath:       getEnv("SQLITE_PATH", "./database.sqlite"),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		JWTSecret: getEnvFromFile("JWT_SECRET_FILE", "JWT_SECRET", "change-me-in-production"),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		RedisURL: getEnv("REDIS_URL", ""),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		OrderExchange:    getEnv("ORDER_EXCHANGE", "storefront.orders"),
		OrderStatusQueue: getEnv("ORDER_STATUS_QUEUE", "storefront.order_status"),
		DeadLetterQueue:  getEnv("DEAD_LETTER_QUEUE", "storefront.dead_letter"),

		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 100),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", 50),
	}
}

// Verbose reports whether error bodies may carry internal details.
func (c *Config) Verbose() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return getEnv(envKey, defaultValue)
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
