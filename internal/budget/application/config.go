package application

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	budget "github.com/ucdavis/iwfm-sub003/internal/budget/domain"
)

// FactorConfig holds unit conversion factors.
type FactorConfig struct {
	Area   float64 `yaml:"area"`
	Volume float64 `yaml:"volume"`
	Length float64 `yaml:"length"`
}

// UnitConfig holds output unit names.
type UnitConfig struct {
	Area   string `yaml:"area"`
	Volume string `yaml:"volume"`
	Length string `yaml:"length"`
}

// Config defines a zone budget run.
type Config struct {
	ZoneFile        string       `yaml:"zone_file"`
	Source          string       `yaml:"source"`
	OutputDir       string       `yaml:"output_dir"`
	Formats         []string     `yaml:"formats"`
	Descriptor      string       `yaml:"descriptor"`
	Factors         FactorConfig `yaml:"factors"`
	Units           UnitConfig   `yaml:"units"`
	DatabaseURL     string       `yaml:"database_url"`
	MetricsTextfile string       `yaml:"metrics_textfile"`
	Notify          NotifyConfig `yaml:"notify"`
}

// NotifyConfig configures run notifications.
type NotifyConfig struct {
	WebhookURL      string `yaml:"webhook_url"`
	OnlyDiagnostics bool   `yaml:"only_diagnostics"`
}

// LoadConfig loads config from env defaults overlaid with the yaml file at
// path. An empty path falls back to ZBUDGET_CONFIG.
func LoadConfig(path string) (Config, error) {
	defaults := budget.DefaultFactors()
	units := budget.DefaultUnits()
	cfg := Config{
		ZoneFile:   os.Getenv("ZBUDGET_ZONE_FILE"),
		Source:     os.Getenv("ZBUDGET_SOURCE"),
		OutputDir:  getenvDefault("ZBUDGET_OUTPUT_DIR", filepath.FromSlash("var/zbudget")),
		Formats:    splitCSV(getenvDefault("ZBUDGET_FORMATS", "csv")),
		Descriptor: os.Getenv("ZBUDGET_DESCRIPTOR"),
		Factors: FactorConfig{
			Area:   getenvFloatDefault("ZBUDGET_AREA_FACTOR", defaults.Area),
			Volume: getenvFloatDefault("ZBUDGET_VOLUME_FACTOR", defaults.Volume),
			Length: getenvFloatDefault("ZBUDGET_LENGTH_FACTOR", defaults.Length),
		},
		Units: UnitConfig{
			Area:   getenvDefault("ZBUDGET_AREA_UNITS", units.Area),
			Volume: getenvDefault("ZBUDGET_VOLUME_UNITS", units.Volume),
			Length: getenvDefault("ZBUDGET_LENGTH_UNITS", units.Length),
		},
		DatabaseURL:     os.Getenv("ZBUDGET_DATABASE_URL"),
		MetricsTextfile: os.Getenv("ZBUDGET_METRICS_TEXTFILE"),
		Notify: NotifyConfig{
			WebhookURL:      os.Getenv("ZBUDGET_NOTIFY_WEBHOOK"),
			OnlyDiagnostics: getenvBool("ZBUDGET_NOTIFY_ONLY_DIAGNOSTICS"),
		},
	}

	if path == "" {
		path = os.Getenv("ZBUDGET_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", budget.ErrConfiguration, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: config %s: %v", budget.ErrConfiguration, path, err)
		}
	}

	if cfg.Factors.Area <= 0 {
		cfg.Factors.Area = defaults.Area
	}
	if cfg.Factors.Volume <= 0 {
		cfg.Factors.Volume = defaults.Volume
	}
	if cfg.Factors.Length <= 0 {
		cfg.Factors.Length = defaults.Length
	}
	for i, format := range cfg.Formats {
		cfg.Formats[i] = strings.ToLower(strings.TrimSpace(format))
	}
	return cfg, nil
}

// Validate reports missing inputs required by a run.
func (c Config) Validate() error {
	if c.ZoneFile == "" {
		return fmt.Errorf("%w: zone file required", budget.ErrConfiguration)
	}
	if c.Source == "" {
		return fmt.Errorf("%w: source required", budget.ErrConfiguration)
	}
	return nil
}

// BudgetFactors returns the configured conversion factors.
func (c Config) BudgetFactors() budget.Factors {
	return budget.Factors{Area: c.Factors.Area, Volume: c.Factors.Volume, Length: c.Factors.Length}
}

// BudgetUnits returns the configured output units.
func (c Config) BudgetUnits() budget.Units {
	return budget.Units{Area: c.Units.Area, Volume: c.Units.Volume, Length: c.Units.Length}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string) bool {
	parsed, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
