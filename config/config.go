package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env          string
	HTTPAddr     string
	HTTPMaxConns int
	LogLevel     string
	JWTSecret    string
	CORSOrigins  []string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPass       string
	DBName       string
	RedisHost    string
	RedisPort    string
	RedisPass    string
	RedisDB      int
	LockTTL      time.Duration
	GCInterval   time.Duration

	SaveFolder        string
	TempFolder        string
	ZipFolder         string
	PerformGC         bool
	TempExpiredAt     int
	ZipExpiredAt      int
	MaxFilenameLength int

	MirrorEnabled     bool
	MinioHost         string
	MinioPort         string
	MinioUsername     string
	MinioPassword     string
	MinioUseSSL       bool
	BucketName        string
	RabbitMQURL       string
	RabbitMQPrefetch  int
	MirrorConcurrency int
	MirrorRate        float64
	MirrorBurst       int
	MirrorRetryMax    int
	MirrorRetryDelays []time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPass     string
	SMTPFrom     string
	SMTPTLS      bool
	AlertAddress []string
}

var AppConfig Config

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDurationList(key string, defaultValue []time.Duration) []time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := time.ParseDuration(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, parsed)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// InitConfig loads .env (when present) and the process environment into AppConfig.
func InitConfig() {
	_ = godotenv.Load()
	AppConfig = Load()
}

// Load reads the configuration from the environment without touching AppConfig.
func Load() Config {
	storageRoot := getEnv("STORAGE_ROOT", filepath.Join("storage", "app"))
	rabbitURL := getEnv("RABBITMQ_URL", "")
	if rabbitURL == "" {
		rabbitURL = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/%s",
			url.PathEscape(getEnv("RABBITMQ_USER", "guest")),
			url.PathEscape(getEnv("RABBITMQ_PASSWORD", "guest")),
			getEnv("RABBITMQ_HOST", "localhost"),
			getEnv("RABBITMQ_PORT", "5672"),
			url.PathEscape(getEnv("RABBITMQ_VHOST", "/")),
		)
	}
	return Config{
		Env:          getEnv("APP_ENV", "development"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8000"),
		HTTPMaxConns: getEnvInt("HTTP_MAX_CONNS", 0),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		JWTSecret:    getEnv("JWT_SECRET", "l=ax+b"),
		CORSOrigins:  getEnvList("CORS_ORIGINS", nil),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "3306"),
		DBUser:       getEnv("DB_USER", "root"),
		DBPass:       getEnv("DB_PASS", "root"),
		DBName:       getEnv("DB_NAME", "file_store"),
		RedisHost:    getEnv("REDIS_HOST", "localhost"),
		RedisPort:    getEnv("REDIS_PORT", "6379"),
		RedisPass:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:      getEnvInt("REDIS_DB", 0),
		LockTTL:      getEnvDuration("MERGE_LOCK_TTL", 10*time.Minute),
		GCInterval:   getEnvDuration("GC_INTERVAL", time.Hour),

		SaveFolder:        getEnv("SAVE_FOLDER", filepath.Join(storageRoot, "files")),
		TempFolder:        getEnv("TEMP_FOLDER", filepath.Join(storageRoot, "temps")),
		ZipFolder:         getEnv("ZIP_FOLDER", filepath.Join(storageRoot, "zips")),
		PerformGC:         getEnvBool("PERFORM_GC", true),
		TempExpiredAt:     getEnvInt("TEMP_EXPIRED_AT", 24),
		ZipExpiredAt:      getEnvInt("ZIP_EXPIRED_AT", 24),
		MaxFilenameLength: getEnvInt("MAX_FILENAME_LENGTH", 128),

		MirrorEnabled:     getEnvBool("MIRROR_ENABLED", false),
		MinioHost:         getEnv("MINIO_HOST", "localhost"),
		MinioPort:         getEnv("MINIO_PORT", "9000"),
		MinioUsername:     getEnv("MINIO_USERNAME", "minioadmin"),
		MinioPassword:     getEnv("MINIO_PASSWORD", "minioadmin"),
		MinioUseSSL:       getEnvBool("MINIO_USE_SSL", false),
		BucketName:        getEnv("BUCKET_NAME", "file-store"),
		RabbitMQURL:       rabbitURL,
		RabbitMQPrefetch:  getEnvInt("RABBITMQ_PREFETCH", 8),
		MirrorConcurrency: getEnvInt("MIRROR_WORKER_CONCURRENCY", 4),
		MirrorRate:        getEnvFloat("MIRROR_RATE", 5),
		MirrorBurst:       getEnvInt("MIRROR_BURST", 5),
		MirrorRetryMax:    getEnvInt("MIRROR_RETRY_MAX", 5),
		MirrorRetryDelays: getEnvDurationList(
			"MIRROR_RETRY_DELAYS",
			[]time.Duration{10 * time.Second, 30 * time.Second, 2 * time.Minute, 10 * time.Minute},
		),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", ""),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPass:     getEnv("SMTP_PASS", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPTLS:      getEnvBool("SMTP_TLS", false),
		AlertAddress: getEnvList("ALERT_MAIL_TO", nil),
	}
}
