package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"parkeasy/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	API        APIConfig        `yaml:"api"`
	Redis      RedisConfig      `yaml:"redis"`
	Session    SessionConfig    `yaml:"session"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Exports    ExportConfig     `yaml:"exports"`
	View       ViewConfig       `yaml:"view"`
	Locations  []string         `yaml:"locations"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type SessionConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// ViewConfig seeds the view state and bounds broadcast-triggered refreshes.
type ViewConfig struct {
	Location     string  `yaml:"location"`
	Floor        int     `yaml:"floor"`
	RefreshRPS   float64 `yaml:"refresh_rps"`
	RefreshBurst int     `yaml:"refresh_burst"`
}

func Load(configPath string) (*Config, error) {
	// .env переопределяет окружение до раскрытия переменных в YAML
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	// applyDefaults guarantees a base URL is set; what can still be wrong
	// is its shape.
	if _, err := url.ParseRequestURI(c.API.BaseURL); err != nil {
		return fmt.Errorf("invalid api base url: %w", err)
	}

	if c.View.Floor < 1 {
		return errors.New("view floor must be positive")
	}

	return ValidateLocations(c.Locations)
}

func ValidateLocations(locations []string) error {
	// Check for empty or duplicate location names
	seen := make(map[string]bool)
	for _, loc := range locations {
		if loc == "" {
			return errors.New("location with empty name")
		}
		if seen[loc] {
			return fmt.Errorf("duplicate location found: %s", loc)
		}
		seen[loc] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:5000/api"
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = 10
	}
	if c.Session.Path == "" {
		c.Session.Path = "data/session.db"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	// View defaults
	if c.View.Location == "" {
		c.View.Location = models.DefaultLocation
	}
	if c.View.Floor == 0 {
		c.View.Floor = models.DefaultFloor
	}
	if c.View.RefreshRPS == 0 {
		c.View.RefreshRPS = 1
	}
	if c.View.RefreshBurst == 0 {
		c.View.RefreshBurst = 3
	}

	if len(c.Locations) == 0 {
		c.Locations = append(c.Locations, models.Locations...)
	}
}
