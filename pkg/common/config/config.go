package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Batch directories
	InputDir      string
	ProcessedDir  string
	CodesDir      string
	ReportsDir    string
	EmbeddingsDir string

	// Terminology
	TerminologyPath string

	// Age distribution
	AgeBinWidth int

	// Server (catalog service)
	ServerPort   string
	ServerHost   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Database
	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Embedding model endpoint
	EmbedBaseURL      string
	EmbedAPIKey       string
	EmbedModelName    string
	EmbedTokenURL     string
	EmbedClientID     string
	EmbedClientSecret string
	EmbedTimeout      time.Duration
	EmbedCacheTTL     time.Duration

	// Object storage
	MinioEnabled   bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

func Load() *Config {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	return &Config{
		InputDir:      getEnv("INPUT_DIR", "data/fhir_input"),
		ProcessedDir:  getEnv("PROCESSED_DIR", "data/processed_ehr_data"),
		CodesDir:      getEnv("CODES_DIR", "data/codes"),
		ReportsDir:    getEnv("REPORTS_DIR", "data/reports"),
		EmbeddingsDir: getEnv("EMBEDDINGS_DIR", "data/embeddings"),

		TerminologyPath: getEnv("TERMINOLOGY_PATH", ""),

		AgeBinWidth: getIntEnv("AGE_BIN_WIDTH", 5),

		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ServerHost:   getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),

		PostgresEnabled:  getBoolEnv("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "medstream"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "medstream123"),
		PostgresDB:       getEnv("POSTGRES_DB", "medstream"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisEnabled:  getBoolEnv("REDIS_ENABLED", false),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaEnabled: getBoolEnv("KAFKA_ENABLED", false),
		KafkaBrokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "patient-records"),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "medstream-pipeline"),

		EmbedBaseURL:      getEnv("EMBED_BASE_URL", "http://localhost:8090/v1"),
		EmbedAPIKey:       getEnv("EMBED_API_KEY", ""),
		EmbedModelName:    getEnv("EMBED_MODEL_NAME", "biobert-base-cased-v1.1"),
		EmbedTokenURL:     getEnv("EMBED_TOKEN_URL", ""),
		EmbedClientID:     getEnv("EMBED_CLIENT_ID", ""),
		EmbedClientSecret: getEnv("EMBED_CLIENT_SECRET", ""),
		EmbedTimeout:      getDuration("EMBED_TIMEOUT", 30*time.Second),
		EmbedCacheTTL:     getDuration("EMBED_CACHE_TTL", 0),

		MinioEnabled:   getBoolEnv("MINIO_ENABLED", false),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "medstream-artifacts"),
		MinioUseSSL:    getBoolEnv("MINIO_USE_SSL", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return []string{value}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
