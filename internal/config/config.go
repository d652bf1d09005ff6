package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Gemini
	GeminiAPIKey       string
	GeminiModel        string
	ReceiptScanTimeout time.Duration

	// Google Sheets mirror
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Feedback delivery
	FeedbackWebhookURL string

	// Dashboard cache
	CacheTTL     time.Duration
	CacheMaxSize int

	// Rate limiting for mutating requests
	RateLimitPerMinute int

	// Backend selection
	DataBackend string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/paisa.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "paisa"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_transactions"),

		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		ReceiptScanTimeout: getEnvDuration("RECEIPT_SCAN_TIMEOUT", 5*time.Second),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),

		FeedbackWebhookURL: getEnv("FEEDBACK_WEBHOOK_URL", ""),

		CacheTTL:     getEnvDuration("CACHE_TTL", 30*time.Second),
		CacheMaxSize: getEnvInt("CACHE_MAX_SIZE", 1000),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend: getEnv("DATA_BACKEND", "memory"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate feedback webhook URL if provided
	if c.FeedbackWebhookURL != "" {
		if parsedURL, err := url.Parse(c.FeedbackWebhookURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid feedback webhook URL '%s': %v", c.FeedbackWebhookURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid feedback webhook URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}

	// Validate Gemini configuration
	if c.GeminiAPIKey != "" && c.GeminiModel == "" {
		errors = append(errors, "Gemini model cannot be empty when an API key is provided")
	}
	if c.ReceiptScanTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid receipt scan timeout %v: must be at least 1 second", c.ReceiptScanTimeout))
	} else if c.ReceiptScanTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid receipt scan timeout %v: must be at most 1 minute", c.ReceiptScanTimeout))
	}

	// Validate cache configuration
	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.CacheMaxSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache max size %d: must be at least 1", c.CacheMaxSize))
	}

	// Validate rate limit
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// MirrorEnabled reports whether the Google Sheets mirror can be built.
func (c *Config) MirrorEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// AIEnabled reports whether the Gemini endpoints can be served.
func (c *Config) AIEnabled() bool {
	return c.GeminiAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
