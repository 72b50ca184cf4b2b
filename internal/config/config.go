package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"bayline/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Shop       ShopConfig       `yaml:"shop"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Google     GoogleConfig     `yaml:"google"`
	API        APIConfig        `yaml:"api"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// ShopConfig carries the business constants: timezone, operating hours, the
// closed weekday, the bays and the service catalog. Nothing here is derived
// at runtime; it is the configuration contract of the scheduling core.
type ShopConfig struct {
	Timezone  string           `yaml:"timezone"`
	OpenHour  int              `yaml:"open_hour"`
	CloseHour int              `yaml:"close_hour"`
	ClosedDay string           `yaml:"closed_day"`
	Bays      []models.Bay     `yaml:"bays"`
	Services  []models.Service `yaml:"services"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type GoogleConfig struct {
	CredentialsFile  string `yaml:"credentials_file"`
	LogSpreadsheetID string `yaml:"log_spreadsheet_id"`
	LogSheetRange    string `yaml:"log_sheet_range"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Environment variables referenced in the YAML are expanded before parsing.
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
	if _, err := time.LoadLocation(c.Shop.Timezone); err != nil {
		return fmt.Errorf("invalid shop timezone %q: %w", c.Shop.Timezone, err)
	}
	if c.Shop.OpenHour < 0 || c.Shop.CloseHour > 24 || c.Shop.OpenHour >= c.Shop.CloseHour {
		return fmt.Errorf("invalid operating hours %d-%d", c.Shop.OpenHour, c.Shop.CloseHour)
	}
	if _, err := ParseWeekday(c.Shop.ClosedDay); err != nil {
		return err
	}
	if len(c.Shop.Bays) == 0 {
		return errors.New("at least one bay is required")
	}
	if err := validateBays(c.Shop.Bays); err != nil {
		return err
	}
	return ValidateServices(c.Shop.Services)
}

func validateBays(bays []models.Bay) error {
	seen := make(map[string]bool, len(bays))
	for _, bay := range bays {
		if bay.ID == "" {
			return fmt.Errorf("bay %q has empty id", bay.Name)
		}
		if seen[bay.ID] {
			return fmt.Errorf("duplicate bay id: %s", bay.ID)
		}
		seen[bay.ID] = true
	}
	return nil
}

func ValidateServices(services []models.Service) error {
	names := make(map[string]bool, len(services))
	for _, s := range services {
		if s.Name == "" {
			return fmt.Errorf("service %q has empty name", s.ID)
		}
		if s.DurationHours <= 0 {
			return fmt.Errorf("service %q has non-positive duration", s.Name)
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate service name: %s", s.Name)
		}
		names[s.Name] = true
	}
	return nil
}

// ParseWeekday maps a config weekday name to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(name)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid closed_day %q", name)
}

func (c *Config) applyDefaults() {
	if c.Shop.Timezone == "" {
		c.Shop.Timezone = "America/New_York"
	}
	if c.Shop.OpenHour == 0 && c.Shop.CloseHour == 0 {
		c.Shop.OpenHour = 8
		c.Shop.CloseHour = 18
	}
	if c.Shop.ClosedDay == "" {
		c.Shop.ClosedDay = "Sunday"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Google.LogSheetRange == "" {
		c.Google.LogSheetRange = "Sheet1!A:G"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
