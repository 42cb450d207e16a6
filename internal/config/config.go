package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable with STORE_BACKEND.
const (
	StoreDynamo = "dynamo"
	StoreMongo  = "mongo"
)

// Ledger backends selectable with LEDGER_BACKEND. LedgerStore keeps pending
// verifications next to the users in the configured store.
const (
	LedgerStore = "store"
	LedgerRedis = "redis"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	StoreBackend  string
	LedgerBackend string
	Bootstrap     bool

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	MongoURI string
	MongoDB  string

	RedisURL string

	OTPTTL             time.Duration
	CounterMaxAttempts int

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each collection.
type DynamoTables struct {
	Users                string
	PendingVerifications string
	Metadata             string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:  getEnv("APP_PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", StoreDynamo)),
		LedgerBackend: strings.ToLower(getEnv("LEDGER_BACKEND", LedgerStore)),
		Bootstrap:     getEnvBool("BOOTSTRAP_STORE", true),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:                getEnv("DYNAMO_TABLE_USERS", "users"),
			PendingVerifications: getEnv("DYNAMO_TABLE_PENDING_VERIFICATIONS", "pendingVerifications"),
			Metadata:             getEnv("DYNAMO_TABLE_METADATA", "metadata"),
		},

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "phoneauth"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		OTPTTL:             time.Duration(getEnvInt("OTP_TTL_SECONDS", 600)) * time.Second,
		CounterMaxAttempts: getEnvInt("COUNTER_MAX_ATTEMPTS", 10),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
