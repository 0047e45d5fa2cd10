package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Processing  ProcessingConfig
	Supabase    SupabaseConfig
	Redis       RedisConfig
	RabbitMQ    RabbitMQConfig
	Storage     StorageConfig
	Compression CompressionConfig
	Session     SessionConfig
	Export      ExportConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port           string
	APIPort        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// ProcessingConfig points at the remote image processing service.
type ProcessingConfig struct {
	BaseURL string
	// Timeout of zero leaves dispatches unbounded.
	Timeout      time.Duration
	CacheResults bool
}

type SupabaseConfig struct {
	URL    string
	KEY    string
	BUCKET string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	URL   string
	Queue string
}

type StorageConfig struct {
	MaxFileSize   int64
	AllowedTypes  []string
	CacheDuration time.Duration
}

type CompressionConfig struct {
	Enabled      bool
	MaxBytes     int64
	MaxDimension int
	Quality      int
}

type SessionConfig struct {
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
	MaxSessions     int
}

type ExportConfig struct {
	// Backend is "supabase", "s3" or empty for no export.
	Backend      string
	S3Bucket     string
	S3Prefix     string
	PresignTTL   time.Duration
	KeyDirectory string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			APIPort:        getEnv("IMAGE_API_PORT", "8082"),
			ReadTimeout:    getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getDuration("WRITE_TIMEOUT", 60*time.Second),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Processing: ProcessingConfig{
			BaseURL:      strings.TrimRight(getEnv("PROCESSING_API_URL", "http://localhost:8082"), "/"),
			Timeout:      getDuration("DISPATCH_TIMEOUT", 0),
			CacheResults: getEnvAsBool("CACHE_RESULTS", false),
		},
		Supabase: SupabaseConfig{
			URL:    getEnv("SUPABASE_URL", ""),
			KEY:    getEnv("SUPABASE_KEY", ""),
			BUCKET: getEnv("SUPABASE_BUCKET", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   getEnv("RABBITMQ_URL", ""),
			Queue: getEnv("RABBITMQ_QUEUE", "image_editor_events"),
		},
		Storage: StorageConfig{
			MaxFileSize:   getEnvAsInt64("MAX_FILE_SIZE", 10*1024*1024), // 10MB
			AllowedTypes:  []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/bmp", "image/tiff"},
			CacheDuration: getDuration("CACHE_DURATION", 24*time.Hour),
		},
		Compression: CompressionConfig{
			Enabled:      getEnvAsBool("COMPRESS_UPLOADS", true),
			MaxBytes:     getEnvAsInt64("COMPRESS_MAX_BYTES", 1024*1024), // 1MB
			MaxDimension: getEnvAsInt("COMPRESS_MAX_DIMENSION", 1920),
			Quality:      getEnvAsInt("COMPRESS_QUALITY", 85),
		},
		Session: SessionConfig{
			IdleTimeout:     getDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
			CleanupInterval: getDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),
			MaxSessions:     getEnvAsInt("MAX_SESSIONS", 500),
		},
		Export: ExportConfig{
			Backend:      strings.ToLower(getEnv("EXPORT_BACKEND", "")),
			S3Bucket:     getEnv("S3_BUCKET", ""),
			S3Prefix:     getEnv("S3_PREFIX", "exports"),
			PresignTTL:   getDuration("S3_PRESIGN_TTL", 15*time.Minute),
			KeyDirectory: getEnv("EXPORT_DIRECTORY", "edited"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultVal
	}
	return items
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
