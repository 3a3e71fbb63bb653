package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Storage  StorageConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	DSN              string
	SQLitePath       string // used when DSN is empty (local/dev mode)
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// StorageConfig selects where document bytes are fetched from.
type StorageConfig struct {
	LocalRoot      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// OCRConfig holds OCR-related configuration.
type OCRConfig struct {
	Tesseract        string // binary name or absolute path
	Pdftoppm         string
	TesseractLang    string
	DPI              int
	VisionAPIKey     string // enables the Google Vision engine when set
	VisionEndpoint   string
	ArtifactCacheDir string
}

// LLMConfig holds extraction-model configuration.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// PipelineConfig holds thresholds for the processing pipeline.
type PipelineConfig struct {
	// ConfidenceThreshold drives both review flagging (strictly below)
	// and requirement acceptance (at or above).
	ConfidenceThreshold float64
	NicheConfigPath     string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			SQLitePath:       getEnv("SQLITE_PATH", "./compliance.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Storage: StorageConfig{
			LocalRoot:      getEnv("STORAGE_PATH", "./storage"),
			MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
			MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
			MinioBucket:    getEnv("MINIO_BUCKET", "documents"),
			MinioUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
		OCR: OCRConfig{
			Tesseract:        getEnv("TESSERACT_PATH", "tesseract"),
			Pdftoppm:         getEnv("PDFTOPPM_PATH", "pdftoppm"),
			TesseractLang:    getEnv("TESSERACT_LANG", "eng"),
			DPI:              int(getEnvAsInt32("OCR_DPI", 300)),
			VisionAPIKey:     getEnv("GOOGLE_VISION_API_KEY", ""),
			VisionEndpoint:   getEnv("GOOGLE_VISION_ENDPOINT", ""),
			ArtifactCacheDir: getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4-turbo-preview"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Pipeline: PipelineConfig{
			ConfidenceThreshold: getEnvAsFloat64("EXTRACTION_CONFIDENCE_THRESHOLD", 0.8),
			NicheConfigPath:     getEnv("NICHE_CONFIG_PATH", "./config/niche.yaml"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt32(key string, fallback int32) int32 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			return int32(n)
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsFloat32(key string, fallback float32) float32 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}

func getEnvAsFloat64(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
