package common

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Store   StoreConfig
	Extract ExtractConfig
	Resolve ResolveConfig
	OCR     OCRConfig
}

// StoreConfig holds fingerprint-store configuration
type StoreConfig struct {
	Path string
}

// ExtractConfig holds text-extraction configuration
type ExtractConfig struct {
	PreferNative     bool
	QualityThreshold float64
}

// ResolveConfig holds candidate-resolution configuration
type ResolveConfig struct {
	DebugContext bool
}

// OCRConfig holds configuration for the external-binary OCR fallback
type OCRConfig struct {
	Pdftoppm    string
	Tesseract   string
	Lang        string
	DPI         int
	MaxPages    int
	TessdataDir string
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: getEnv("FINGERPRINT_DB_PATH", filepath.Join(dataDir(), "fingerprints.db")),
		},
		Extract: ExtractConfig{
			PreferNative:     getEnvAsBool("INTAKE_PREFER_NATIVE", true),
			QualityThreshold: getEnvAsFloat64("INTAKE_QUALITY_THRESHOLD", 0.55),
		},
		Resolve: ResolveConfig{
			DebugContext: getEnvAsBool("INTAKE_DEBUG_CONTEXT", false),
		},
		OCR: OCRConfig{
			Pdftoppm:    getEnv("OCR_PDFTOPPM", "pdftoppm"),
			Tesseract:   getEnv("OCR_TESSERACT", "tesseract"),
			Lang:        getEnv("OCR_LANG", "eng"),
			DPI:         getEnvAsInt("OCR_DPI", 300),
			MaxPages:    getEnvAsInt("OCR_MAX_PAGES", 0),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			Timeout:     getEnvAsDuration("OCR_TIMEOUT", 2*time.Minute),
		},
	}
}

func dataDir() string {
	if d := os.Getenv("DOCINTAKE_DATA_DIR"); d != "" {
		return d
	}
	return "./data"
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvAsBool accepts "1"/"true"/"yes" (case-insensitive) as true.
func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. Only unusable configuration
// is fatal at startup; everything at runtime degrades instead.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return NewAppError("CONFIG_ERROR", "fingerprint store path is required", ErrInvalidInput)
	}
	if c.Extract.QualityThreshold <= 0 || c.Extract.QualityThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "quality threshold must be in (0,1]", ErrInvalidInput)
	}
	return nil
}
