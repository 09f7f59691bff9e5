// Package config provides configuration loading and management for the
// price sync worker. Values are environment-sourced with a PRICESYNC
// prefix; an optional YAML settings file overrides the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sosanhsach/pricesync/internal/vendor"
)

// EnvPrefix is the prefix for all environment variables.
const EnvPrefix = "PRICESYNC"

// Config is the root configuration for the worker.
type Config struct {
	// KeysPath is the path to the Google service account key file.
	KeysPath string `yaml:"keysPath" mapstructure:"keys_path"`

	// SheetID identifies the spreadsheet holding the work queue.
	SheetID string `yaml:"sheetId" mapstructure:"sheet_id"`

	// SheetName is the work-queue sheet within the spreadsheet.
	SheetName string `yaml:"sheetName" mapstructure:"sheet_name"`

	// DataSheetName is the sheet receiving catalog audit rows.
	DataSheetName string `yaml:"dataSheetName" mapstructure:"data_sheet_name"`

	// DataStartIndex is the first audit row number on the data sheet.
	DataStartIndex int `yaml:"dataStartIndex" mapstructure:"data_start_index"`

	// VendorAPIKey authenticates against the vendor catalog API.
	VendorAPIKey string `yaml:"vendorApiKey" mapstructure:"vendor_api_key"`

	// VendorBaseURL overrides the vendor API endpoint.
	VendorBaseURL string `yaml:"vendorBaseUrl" mapstructure:"vendor_base_url"`

	// Origin is sent as the Origin header on every vendor call.
	Origin string `yaml:"origin" mapstructure:"origin"`

	// BatchSize is the number of run rows processed per chunk.
	BatchSize int `yaml:"batchSize" mapstructure:"batch_size"`

	// BatchDelay is the pause between processed chunks.
	BatchDelay time.Duration `yaml:"batchDelay" mapstructure:"batch_delay"`

	// CycleDelay is the inter-cycle pause used when the relax cell is
	// blank or unparsable.
	CycleDelay time.Duration `yaml:"cycleDelay" mapstructure:"cycle_delay"`

	// RelaxCell is the operator-controlled cell holding the inter-cycle
	// delay override, in seconds.
	RelaxCell string `yaml:"relaxCell" mapstructure:"relax_cell"`

	// CacheDir is the directory holding the cache namespace files.
	CacheDir string `yaml:"cacheDir" mapstructure:"cache_dir"`

	// CacheValid is how long cached denominations stay fresh.
	CacheValid time.Duration `yaml:"cacheValid" mapstructure:"cache_valid"`

	// NotesDelay is the mandatory pause after each uncached notes fetch.
	NotesDelay time.Duration `yaml:"notesDelay" mapstructure:"notes_delay"`

	// Debug switches the logger to human-readable debug output.
	Debug bool `yaml:"debug" mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("keys_path", "")
	v.SetDefault("sheet_id", "")
	v.SetDefault("sheet_name", "")
	v.SetDefault("data_sheet_name", "")
	v.SetDefault("data_start_index", 3)
	v.SetDefault("vendor_api_key", "")
	v.SetDefault("vendor_base_url", vendor.DefaultBaseURL)
	v.SetDefault("origin", "sosanhsach.io")
	v.SetDefault("batch_size", 10)
	v.SetDefault("batch_delay", 5*time.Second)
	v.SetDefault("cycle_delay", 10*time.Second)
	v.SetDefault("relax_cell", "Q1")
	v.SetDefault("cache_dir", "./data")
	v.SetDefault("cache_valid", 7*24*time.Hour)
	v.SetDefault("notes_delay", vendor.DefaultNotesDelay)
	v.SetDefault("debug", false)
}

// Load builds the configuration from the environment, then applies the
// optional YAML settings file at path. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment configuration: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that every required setting is present and sane.
func (c *Config) Validate() error {
	if c.KeysPath == "" {
		return fmt.Errorf("keys path is required")
	}
	if c.SheetID == "" {
		return fmt.Errorf("sheet id is required")
	}
	if c.SheetName == "" {
		return fmt.Errorf("sheet name is required")
	}
	if c.DataSheetName == "" {
		return fmt.Errorf("data sheet name is required")
	}
	if c.VendorAPIKey == "" {
		return fmt.Errorf("vendor api key is required")
	}
	if c.RelaxCell == "" {
		return fmt.Errorf("relax cell is required")
	}
	if c.DataStartIndex < 1 {
		return fmt.Errorf("data start index must be positive, got %d", c.DataStartIndex)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	return nil
}
