package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Scraper ScraperConfig
	HTTP    HTTPConfig
	Redis   RedisConfig
	Logging LoggingConfig
}

// ScraperConfig carries the recognized extraction options. Unknown environment
// keys are ignored; missing keys take the defaults below.
type ScraperConfig struct {
	MapRaceToEthnicity          bool
	MapUniverseToDisambiguation bool
	MaxDescriptionLength        int
	ExtractCategories           bool
	ApproximateBirthdate        bool
	AddUniverseToTags           bool
	FictionalCharacterFeatures  bool

	// DefaultBirthYear is the year baseline used when a birthdate gives only a
	// month and day and no age is stated.
	DefaultBirthYear int
	// ReferenceYear anchors age-derived birth year computation. Zero means the
	// current year at scrape time.
	ReferenceYear int

	ProbeImages bool
}

type HTTPConfig struct {
	Timeout       time.Duration
	RetryAttempts int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Scraper: ScraperConfig{
			MapRaceToEthnicity:          getEnvBool("MAP_RACE_TO_ETHNICITY", false),
			MapUniverseToDisambiguation: getEnvBool("MAP_UNIVERSE_TO_DISAMBIGUATION", false),
			MaxDescriptionLength:        getEnvInt("MAX_DESCRIPTION_LENGTH", 2200),
			ExtractCategories:           getEnvBool("EXTRACT_CATEGORIES", false),
			ApproximateBirthdate:        getEnvBool("APPROXIMATE_BIRTHDATE", true),
			AddUniverseToTags:           getEnvBool("ADD_UNIVERSE_TO_TAGS", true),
			FictionalCharacterFeatures:  getEnvBool("FICTIONAL_CHARACTER_FEATURES", false),
			DefaultBirthYear:            getEnvInt("DEFAULT_BIRTH_YEAR", 2005),
			ReferenceYear:               getEnvInt("REFERENCE_YEAR", 0),
			ProbeImages:                 getEnvBool("PROBE_IMAGES", false),
		},
		HTTP: HTTPConfig{
			Timeout:       time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
			RetryAttempts: getEnvInt("HTTP_RETRY_ATTEMPTS", 2),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.MaxDescriptionLength <= 0 {
		return fmt.Errorf("MAX_DESCRIPTION_LENGTH must be positive")
	}
	if c.Scraper.DefaultBirthYear < 1900 {
		return fmt.Errorf("DEFAULT_BIRTH_YEAR must be 1900 or later")
	}
	if c.Scraper.ReferenceYear != 0 && c.Scraper.ReferenceYear < 1900 {
		return fmt.Errorf("REFERENCE_YEAR must be 0 (current year) or 1900+")
	}
	if c.HTTP.RetryAttempts < 1 || c.HTTP.RetryAttempts > 5 {
		return fmt.Errorf("HTTP_RETRY_ATTEMPTS must be between 1 and 5")
	}
	level := strings.ToLower(c.Logging.Level)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug/info/warn/error")
	}
	return nil
}

// ReferenceYearOrNow resolves the configured reference year for age math.
func (c *ScraperConfig) ReferenceYearOrNow() int {
	if c.ReferenceYear > 0 {
		return c.ReferenceYear
	}
	return time.Now().Year()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
