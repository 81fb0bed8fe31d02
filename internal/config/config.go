package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration. It is loaded once at startup
// and handed to each component at construction; no package reads viper (or
// the environment) after Load returns.
type Config struct {
	Database  Database  `mapstructure:"database"`
	Gemini    Gemini    `mapstructure:"gemini"`
	Geocoding Geocoding `mapstructure:"geocoding"`
}

// Database holds the Postgres connection configuration.
type Database struct {
	URL string `mapstructure:"url"`
}

// Gemini holds the generative model configuration used for location
// extraction.
type Gemini struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Geocoding holds the Google Geocoding API configuration.
type Geocoding struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from a .env file (if present), an optional YAML
// config file, and the process environment, in increasing precedence.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists (for local development)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigName(".verseatlas")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	// Bind environment variables: DATABASE_URL, GEMINI_API_KEY, GEOCODING_API_KEY
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.BindEnv("database.url", "DATABASE_URL"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("gemini.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("geocoding.api_key", "GEOCODING_API_KEY"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.timeout", "60s")
	v.SetDefault("geocoding.endpoint", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocoding.timeout", "15s")
}

// Validate checks that every required credential is present. A missing
// credential aborts the process before any record is touched.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.URL == "" {
		errs = append(errs, "database connection string is required. Set DATABASE_URL or database.url in the config file")
	}
	if c.Gemini.APIKey == "" {
		errs = append(errs, "Gemini API key is required. Set GEMINI_API_KEY or gemini.api_key in the config file")
	}
	if c.Geocoding.APIKey == "" {
		errs = append(errs, "geocoding API key is required. Set GEOCODING_API_KEY or geocoding.api_key in the config file")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
