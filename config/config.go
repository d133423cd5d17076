package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DBUrl         string
	JWTSecret     string
	AllowedOrigin string
	FrontendURL   string
	// DB Config
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// Payment Provider
	PaymentAPIURL      string
	PaymentAPIKey      string
	PaymentChecksumKey string
	PaymentLinkTTL     time.Duration
	PaymentPollEvery   time.Duration
	PaymentCountdown   time.Duration
	ReconcileEvery     time.Duration
	ReconcileAfter     time.Duration
	// Object Storage (S3-compatible)
	S3AccountID       string
	S3AccessKeyID     string
	S3AccessKeySecret string
	S3BucketName      string
	S3PublicURL       string
	S3UploadTimeout   time.Duration
	MaxUploadSizeMB   int64
	// Cache
	CacheEnumTTL    time.Duration
	CacheCatalogTTL time.Duration
	// Business Rules
	MaxCartQuantity    int
	ShippingFee        string
	DefaultWarehouseID string
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// Default fallback: .env for local dev. In docker/prod envs the file
		// might not exist and we rely on system env vars.
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBUrl:         getEnv("DB_DSN", ""),
		JWTSecret:     getEnv("JWT_SECRET", "default_secret_CHANGE_ME"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),

		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 50),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 10),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		PaymentAPIURL:      getEnv("PAYMENT_API_URL", "https://api-merchant.payos.vn"),
		PaymentAPIKey:      getEnv("PAYMENT_API_KEY", ""),
		PaymentChecksumKey: getEnv("PAYMENT_CHECKSUM_KEY", ""),
		PaymentLinkTTL:     getDurationEnv("PAYMENT_LINK_TTL", 15*time.Minute),
		PaymentPollEvery:   getDurationEnv("PAYMENT_POLL_EVERY", 5*time.Second),
		PaymentCountdown:   getDurationEnv("PAYMENT_COUNTDOWN", 10*time.Minute),
		ReconcileEvery:     getDurationEnv("RECONCILE_EVERY", time.Minute),
		ReconcileAfter:     getDurationEnv("RECONCILE_AFTER", 30*time.Minute),

		S3AccountID:       getEnv("S3_ACCOUNT_ID", ""),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3AccessKeySecret: getEnv("S3_ACCESS_KEY_SECRET", ""),
		S3BucketName:      getEnv("S3_BUCKET_NAME", ""),
		S3PublicURL:       getEnv("S3_PUBLIC_URL", ""),
		S3UploadTimeout:   getDurationEnv("S3_UPLOAD_TIMEOUT", 30*time.Second),
		MaxUploadSizeMB:   getInt64Env("MAX_UPLOAD_SIZE_MB", 10),

		CacheEnumTTL:    getDurationEnv("CACHE_ENUM_TTL", time.Hour),
		CacheCatalogTTL: getDurationEnv("CACHE_CATALOG_TTL", 10*time.Minute),

		MaxCartQuantity:    getIntEnv("MAX_CART_QUANTITY", 1000),
		ShippingFee:        getEnv("SHIPPING_FEE", "15000"),
		DefaultWarehouseID: getEnv("DEFAULT_WAREHOUSE_ID", "main"),
	}

	cfg.Validate()
	return cfg
}

func (c *Config) Validate() {
	if c.DBUrl == "" {
		log.Fatal("CRITICAL: DB_DSN environment variable is required")
	}
	if c.JWTSecret == "default_secret_CHANGE_ME" {
		log.Println("WARNING: Using default JWT secret. Setting up for failure in production.")
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getInt32Env(key string, fallback int32) int32 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
		log.Printf("Invalid int32 for %s, using fallback", key)
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
		log.Printf("Invalid int64 for %s, using fallback", key)
	}
	return fallback
}
