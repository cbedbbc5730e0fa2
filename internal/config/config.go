package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"campaign-dashboard/internal/transformer"
)

const (
	DefaultRange = "A1:Z1000"
	WideRange    = "A1:ZZ10000"
)

type Config struct {
	Port          string
	LogLevel      string
	HTTPTimeout   time.Duration
	RetryAttempts int

	// Spreadsheet access. WorkbookPath switches to a local XLSX file.
	SpreadsheetID       string
	APIKey              string
	ServiceAccountEmail string
	PrivateKey          string
	CredentialsFile     string
	SheetsBaseURL       string
	WorkbookPath        string
	RequestsPerMinute   int

	CORSAllowedOrigins []string

	Sheets  SheetConfig
	Columns transformer.Aliases
}

// fileConfig is the optional YAML overlay named by DASHBOARD_CONFIG.
type fileConfig struct {
	Sheets  *SheetConfig        `yaml:"sheets"`
	Columns transformer.Aliases `yaml:"columns"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	timeout, err := time.ParseDuration(getEnv("HTTP_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	retryAttempts, _ := strconv.Atoi(getEnv("RETRY_ATTEMPTS", "3"))
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	rpm, _ := strconv.Atoi(getEnv("SHEETS_REQUESTS_PER_MINUTE", "60"))

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		HTTPTimeout:         timeout,
		RetryAttempts:       retryAttempts,
		SpreadsheetID:       os.Getenv("GOOGLE_SHEET_ID"),
		APIKey:              os.Getenv("GOOGLE_API_KEY"),
		ServiceAccountEmail: os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"),
		PrivateKey:          strings.ReplaceAll(os.Getenv("GOOGLE_PRIVATE_KEY"), `\n`, "\n"),
		CredentialsFile:     os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		SheetsBaseURL:       getEnv("SHEETS_API_BASE_URL", "https://sheets.googleapis.com"),
		WorkbookPath:        os.Getenv("SHEETS_WORKBOOK_PATH"),
		RequestsPerMinute:   rpm,
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		Sheets:              sheetsFromEnv(),
		Columns:             transformer.DefaultAliases(),
	}

	if path := os.Getenv("DASHBOARD_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Sheets != nil {
		c.Sheets = c.Sheets.Merge(*fc.Sheets)
	}
	if len(fc.Columns) > 0 {
		c.Columns = c.Columns.Merge(fc.Columns)
	}
	return nil
}

// HasSource reports whether any spreadsheet source is configured.
func (c *Config) HasSource() bool {
	return c.SpreadsheetID != "" || c.WorkbookPath != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
