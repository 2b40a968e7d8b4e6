package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Scraper.MaxDescriptionLength != 2200 {
		t.Errorf("MaxDescriptionLength = %d", cfg.Scraper.MaxDescriptionLength)
	}
	if cfg.Scraper.DefaultBirthYear != 2005 {
		t.Errorf("DefaultBirthYear = %d", cfg.Scraper.DefaultBirthYear)
	}
	if !cfg.Scraper.ApproximateBirthdate {
		t.Error("ApproximateBirthdate should default on")
	}
	if cfg.Scraper.MapRaceToEthnicity {
		t.Error("MapRaceToEthnicity should default off")
	}
	if cfg.Redis.Enabled {
		t.Error("Redis should default off")
	}
	if cfg.HTTP.Timeout != 15*time.Second {
		t.Errorf("HTTP.Timeout = %v", cfg.HTTP.Timeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MAP_RACE_TO_ETHNICITY", "true")
	t.Setenv("MAX_DESCRIPTION_LENGTH", "500")
	t.Setenv("REFERENCE_YEAR", "2025")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Scraper.MapRaceToEthnicity {
		t.Error("MapRaceToEthnicity not read from env")
	}
	if cfg.Scraper.MaxDescriptionLength != 500 {
		t.Errorf("MaxDescriptionLength = %d", cfg.Scraper.MaxDescriptionLength)
	}
	if cfg.Scraper.ReferenceYear != 2025 {
		t.Errorf("ReferenceYear = %d", cfg.Scraper.ReferenceYear)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero description length", func(c *Config) { c.Scraper.MaxDescriptionLength = 0 }},
		{"ancient birth year", func(c *Config) { c.Scraper.DefaultBirthYear = 1800 }},
		{"bad reference year", func(c *Config) { c.Scraper.ReferenceYear = 3 }},
		{"too many retries", func(c *Config) { c.HTTP.RetryAttempts = 9 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestReferenceYearOrNow(t *testing.T) {
	c := ScraperConfig{ReferenceYear: 2025}
	if c.ReferenceYearOrNow() != 2025 {
		t.Error("explicit reference year ignored")
	}

	c.ReferenceYear = 0
	if c.ReferenceYearOrNow() != time.Now().Year() {
		t.Error("zero should resolve to the current year")
	}
}
