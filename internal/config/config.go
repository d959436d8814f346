package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the storefront configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Kafka     KafkaConfig     `json:"kafka"`
	Logger    LoggerConfig    `json:"logger"`
	Backend   BackendConfig   `json:"backend"`
	Cache     CacheConfig     `json:"cache"`
	Stripe    StripeConfig    `json:"stripe"`
	Mail      MailConfig      `json:"mail"`
	Session   SessionConfig   `json:"session"`
	Checkout  CheckoutConfig  `json:"checkout"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string `json:"port"`
	Host         string `json:"host"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
}

// DatabaseConfig points at the PostgreSQL instance that stores promo codes.
type DatabaseConfig struct {
	Host      string `json:"host"`
	Port      string `json:"port"`
	User      string `json:"user"`
	Password  string `json:"password"`
	DBName    string `json:"db_name"`
	SSLMode   string `json:"ssl_mode"`
	SeedPromo bool   `json:"seed_promo"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// KafkaConfig holds Kafka settings.
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	GroupID string   `json:"group_id"`
	Topics  Topics   `json:"topics"`
}

// Topics lists the Kafka topics the storefront writes to and reads from.
type Topics struct {
	Orders   string `json:"orders"`
	Payments string `json:"payments"`
	Catalog  string `json:"catalog"`
}

// LoggerConfig holds logger settings.
type LoggerConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

// BackendConfig describes the upstream REST API.
type BackendConfig struct {
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// CacheConfig holds TTLs of the gateway response cache, in seconds.
// Zero disables caching for that class of reads.
type CacheConfig struct {
	ListingTTL    int `json:"listing_ttl"`
	ProductTTL    int `json:"product_ttl"`
	FlashSaleTTL  int `json:"flash_sale_ttl"`
	BestsellerTTL int `json:"bestseller_ttl"`
}

// StripeConfig holds payment provider credentials.
type StripeConfig struct {
	SecretKey     string `json:"-"`
	WebhookSecret string `json:"-"`
	Currency      string `json:"currency"`
}

// MailConfig holds SMTP settings for transactional email.
type MailConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"-"`
	From       string `json:"from"`
	AdminEmail string `json:"admin_email"`
}

// SessionConfig holds cookie session settings.
type SessionConfig struct {
	Name       string `json:"name"`
	Secret     string `json:"-"`
	Secure     bool   `json:"secure"`
	MaxAgeDays int    `json:"max_age_days"`
}

// CheckoutConfig holds order pricing rules.
type CheckoutConfig struct {
	TaxRate               float64 `json:"tax_rate"`
	FreeShippingThreshold float64 `json:"free_shipping_threshold"`
	ShippingFee           float64 `json:"shipping_fee"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Enabled       bool   `json:"enabled"`
	Requests      int    `json:"requests"`
	WindowSeconds int    `json:"window_seconds"`
	KeyPrefix     string `json:"key_prefix"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars take precedence.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 30),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "5432"),
			User:      getEnv("DB_USER", "storefront"),
			Password:  getEnv("DB_PASSWORD", "storefront"),
			DBName:    getEnv("DB_NAME", "storefront"),
			SSLMode:   getEnv("DB_SSL_MODE", "disable"),
			SeedPromo: getEnvAsBool("DB_SEED_PROMO", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			GroupID: getEnv("KAFKA_GROUP_ID", "storefront"),
			Topics: Topics{
				Orders:   getEnv("KAFKA_TOPIC_ORDERS", "storefront.orders"),
				Payments: getEnv("KAFKA_TOPIC_PAYMENTS", "storefront.payments"),
				Catalog:  getEnv("KAFKA_TOPIC_CATALOG", "storefront.catalog"),
			},
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(getEnv("BACKEND_API_URL", "http://localhost:5000/api/v1"), "/"),
			TimeoutSeconds: getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 30),
		},
		Cache: CacheConfig{
			ListingTTL:    getEnvAsInt("CACHE_LISTING_TTL_SECONDS", 60),
			ProductTTL:    getEnvAsInt("CACHE_PRODUCT_TTL_SECONDS", 60),
			FlashSaleTTL:  getEnvAsInt("CACHE_FLASH_SALE_TTL_SECONDS", 30),
			BestsellerTTL: getEnvAsInt("CACHE_BESTSELLER_TTL_SECONDS", 300),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:      getEnv("STRIPE_CURRENCY", "usd"),
		},
		Mail: MailConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Username:   getEnv("SMTP_USERNAME", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			From:       getEnv("MAIL_FROM", "E-Commerce Store <no-reply@localhost>"),
			AdminEmail: getEnv("MAIL_ADMIN", ""),
		},
		Session: SessionConfig{
			Name:       getEnv("SESSION_NAME", "storefront_session"),
			Secret:     getEnv("SESSION_SECRET", "change-me-in-production-32-bytes!"),
			Secure:     getEnvAsBool("SESSION_SECURE", false),
			MaxAgeDays: getEnvAsInt("SESSION_MAX_AGE_DAYS", 30),
		},
		Checkout: CheckoutConfig{
			TaxRate:               getEnvAsFloat("CHECKOUT_TAX_RATE", 0.1),
			FreeShippingThreshold: getEnvAsFloat("CHECKOUT_FREE_SHIPPING_THRESHOLD", 100),
			ShippingFee:           getEnvAsFloat("CHECKOUT_SHIPPING_FEE", 10),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", false),
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			KeyPrefix:     getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit"),
		},
	}
}

// Configured reports whether SMTP delivery can be attempted.
func (c MailConfig) Configured() bool {
	return c.Host != "" && c.AdminEmail != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(getEnv(key, ""))
	if valueStr == "true" || valueStr == "1" || valueStr == "yes" {
		return true
	}
	if valueStr == "false" || valueStr == "0" || valueStr == "no" {
		return false
	}
	return defaultValue
}
