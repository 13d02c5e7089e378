package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	HTTPAddr      string
	PublicBaseURL string // explicit base URL override for derived asset URLs; empty means derive from the request
	CORSOrigins   string

	UploadDir string // storage directory shared by uploads and downloaded audio

	AnalyzerURL            string // external analyzer endpoint, e.g. http://127.0.0.1:8001
	AnalyzerTimeoutSeconds int

	YtdlpPath              string
	DownloadTimeoutSeconds int

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	MinioEnabled   bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":5000"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),

		UploadDir: getEnv("UPLOAD_DIR", "uploads"),

		AnalyzerURL:            getEnv("ANALYZER_URL", "http://127.0.0.1:8001"),
		AnalyzerTimeoutSeconds: getEnvInt("ANALYZER_TIMEOUT_SECONDS", 120),

		YtdlpPath:              getEnv("YTDLP_PATH", "yt-dlp"),
		DownloadTimeoutSeconds: getEnvInt("DOWNLOAD_TIMEOUT_SECONDS", 300),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for the password
		DBName:     getEnv("DB_NAME", "musicify"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEnabled:   getEnvBool("MINIO_ENABLED", false),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "musicify"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		LogLevel: getEnv("LOG_LEVEL", "debug"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
