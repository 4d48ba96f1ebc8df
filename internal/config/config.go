package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JobQueue JobQueueConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
	EventChannel       string
	ActivityTopic      string
}

type DatabaseConfig struct {
	Connection string
}

type JobQueueConfig struct {
	Stream        string
	Subject       string
	Durable       string
	Concurrency   int
	MaxRetries    int
	BackoffBase   time.Duration
	BackoffCap    time.Duration
	JobTimeout    time.Duration
	HandlerDelay  time.Duration
	ExportBaseURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			EventChannel:       getEnv("COLLABORATION_EVENT_CHANNEL", "collaboration_events"),
			ActivityTopic:      getEnv("ACTIVITY_TOPIC", "workspace_activities"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		JobQueue: JobQueueConfig{
			Stream:        getEnv("JOB_STREAM", "JOBS"),
			Subject:       getEnv("JOB_SUBJECT", "jobs.submit"),
			Durable:       getEnv("JOB_DURABLE", "job-workers"),
			Concurrency:   getEnvAsInt("JOB_CONCURRENCY", 5),
			MaxRetries:    getEnvAsInt("JOB_MAX_RETRIES", 3),
			BackoffBase:   getEnvAsDuration("JOB_BACKOFF_BASE", 2*time.Second),
			BackoffCap:    getEnvAsDuration("JOB_BACKOFF_CAP", 2*time.Minute),
			JobTimeout:    getEnvAsDuration("JOB_TIMEOUT", 5*time.Minute),
			HandlerDelay:  getEnvAsDuration("JOB_HANDLER_DELAY", 2*time.Second),
			ExportBaseURL: getEnv("EXPORT_BASE_URL", "https://exports.localhost/workspaces"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
