package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string `validate:"required"`
	PostgresPort     string `validate:"required,numeric"`
	PostgresUser     string `validate:"required"`
	PostgresPassword string
	PostgresDB       string `validate:"required"`
	PostgresSSLMode  string `validate:"oneof=disable require verify-ca verify-full"`

	InputGlob       string `validate:"required"`
	ScrapeOutputDir string `validate:"required"`
	ReportPath      string

	APIKey   string `validate:"required"`
	HTTPAddr string `validate:"required"`

	RedisAddr     string
	RedisPassword string
	RedisDB       int `validate:"gte=0"`
	CacheTTL      time.Duration

	RecommendSchedule string `validate:"required"`
	Timezone          string `validate:"required"`

	LogLevel       string `validate:"oneof=trace debug info warn error"`
	LogFormat      string `validate:"oneof=console json"`
	PushgatewayURL string `validate:"omitempty,url"`

	MaxConcurrency    int      `validate:"gte=1"`
	RateLimitMs       int      `validate:"gte=0"`
	MaxRetries        int      `validate:"gte=1"`
	ScrapeSources     []string `validate:"min=1"`
	ScrapeMaxProducts int      `validate:"gte=0"`
	ChromeBin         string
	ChromeDebugURL    string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "myuser"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "mypassword"),
		PostgresDB:       getEnv("POSTGRES_DB", "mydatabase"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		InputGlob:       getEnv("INPUT_GLOB", "./data/*_cleaned.csv"),
		ScrapeOutputDir: getEnv("SCRAPE_OUTPUT_DIR", "./data"),
		ReportPath:      getEnv("REPORT_PATH", ""),

		APIKey:   getEnv("API_KEY", ""),
		HTTPAddr: getEnv("HTTP_ADDR", ":8000"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_MINUTES", 60)) * time.Minute,

		RecommendSchedule: getEnv("RECOMMEND_SCHEDULE", "0 6 * * *"),
		Timezone:          getEnv("TIMEZONE", "Asia/Jakarta"),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),

		MaxConcurrency:    getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:       getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		ScrapeSources:     getEnvList("SCRAPE_SOURCES", []string{"tokopedia", "blibli", "indomaret"}),
		ScrapeMaxProducts: getEnvInt("SCRAPE_MAX_PRODUCTS", 15),
		ChromeBin:         getEnv("CHROME_BIN", ""),
		ChromeDebugURL:    getEnv("CHROME_DEBUG_URL", ""),
	}
}

// Validate checks the loaded values. The API key is only demanded by commands
// that serve HTTP, so callers pass requireAPIKey accordingly.
func (c *Config) Validate(requireAPIKey bool) error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("config: %w", err)
		}
		for _, fe := range verrs {
			if fe.Field() == "APIKey" && !requireAPIKey {
				continue
			}
			return fmt.Errorf("config: invalid %s (%s)", fe.Field(), fe.Tag())
		}
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves the configured timezone used for "today".
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
