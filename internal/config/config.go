package config

import (
	"fmt"
	"os"
	"path/filepath"

	"ganttfmt/internal/logger"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Scan     ScanConfig     `toml:"scan"`
	Server   ServerConfig   `toml:"server"`
	Timeline TimelineConfig `toml:"timeline"`
	Keywords KeywordConfig  `toml:"keywords"`
	AI       AIConfig       `toml:"ai"`
	Log      LogConfig      `toml:"log"`
}

type ScanConfig struct {
	InputDirectory  string `toml:"input_directory"`
	OutputDirectory string `toml:"output_directory"`
}

type ServerConfig struct {
	Address        string   `toml:"address"`
	Mode           string   `toml:"mode"`
	MaxUploadMB    int64    `toml:"max_upload_mb"`
	OutputFileName string   `toml:"output_file_name"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type TimelineConfig struct {
	MonthColumnWidth float64     `toml:"month_column_width"`
	SubtaskHeader    string      `toml:"subtask_header"`
	DateFormat       string      `toml:"date_format"`
	Colors           ColorConfig `toml:"colors"`
}

// ColorConfig holds hex RGB fills without the leading '#'.
type ColorConfig struct {
	Planned        string `toml:"planned"`
	Actual         string `toml:"actual"`
	SubtaskPlanned string `toml:"subtask_planned"`
	SubtaskActual  string `toml:"subtask_actual"`
}

// KeywordConfig overrides the header keywords per date field. Empty lists
// keep the built-in keywords.
type KeywordConfig struct {
	PlannedStart []string `toml:"planned_start"`
	PlannedEnd   []string `toml:"planned_end"`
	ActualStart  []string `toml:"actual_start"`
	ActualEnd    []string `toml:"actual_end"`
}

type AIConfig struct {
	Enabled       bool    `toml:"enabled"`
	Model         string  `toml:"model"`
	MinConfidence float64 `toml:"min_confidence"`
}

type LogConfig struct {
	Directory string `toml:"directory"`
	Level     string `toml:"level"`
}

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			InputDirectory:  "data/input",
			OutputDirectory: "data/output",
		},
		Server: ServerConfig{
			Address:        ":8080",
			Mode:           "release",
			MaxUploadMB:    32,
			OutputFileName: "gantt_chart_output.xlsx",
		},
		Timeline: TimelineConfig{
			MonthColumnWidth: 10,
			SubtaskHeader:    "Task S. No",
			DateFormat:       "yyyy-mm-dd",
			Colors: ColorConfig{
				Planned:        "00CC00",
				Actual:         "0000FF",
				SubtaskPlanned: "90EE90",
				SubtaskActual:  "800080",
			},
		},
		AI: AIConfig{
			Enabled:       false,
			Model:         "gemini-2.0-flash",
			MinConfidence: 0.8,
		},
		Log: LogConfig{
			Directory: "logs",
			Level:     "info",
		},
	}
}

// LoadConfig loads configuration from the specified config file path
func LoadConfig(configPath string) (*Config, error) {
	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		defaultConfig := Default()
		err = SaveConfig(configPath, defaultConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		logger.Info("Created default config file", "path", configPath)
		return defaultConfig, nil
	}

	var config Config
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	config.applyDefaults()

	logger.Info("Loaded configuration", "path", configPath)
	return &config, nil
}

func (c *Config) applyDefaults() {
	d := Default()

	if c.Scan.InputDirectory == "" {
		c.Scan.InputDirectory = d.Scan.InputDirectory
	}
	if c.Scan.OutputDirectory == "" {
		c.Scan.OutputDirectory = d.Scan.OutputDirectory
	}
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Server.Mode == "" {
		c.Server.Mode = d.Server.Mode
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = d.Server.MaxUploadMB
	}
	if c.Server.OutputFileName == "" {
		c.Server.OutputFileName = d.Server.OutputFileName
	}
	if c.Timeline.MonthColumnWidth <= 0 {
		c.Timeline.MonthColumnWidth = d.Timeline.MonthColumnWidth
	}
	if c.Timeline.SubtaskHeader == "" {
		c.Timeline.SubtaskHeader = d.Timeline.SubtaskHeader
	}
	if c.Timeline.DateFormat == "" {
		c.Timeline.DateFormat = d.Timeline.DateFormat
	}
	if c.Timeline.Colors.Planned == "" {
		c.Timeline.Colors.Planned = d.Timeline.Colors.Planned
	}
	if c.Timeline.Colors.Actual == "" {
		c.Timeline.Colors.Actual = d.Timeline.Colors.Actual
	}
	if c.Timeline.Colors.SubtaskPlanned == "" {
		c.Timeline.Colors.SubtaskPlanned = d.Timeline.Colors.SubtaskPlanned
	}
	if c.Timeline.Colors.SubtaskActual == "" {
		c.Timeline.Colors.SubtaskActual = d.Timeline.Colors.SubtaskActual
	}
	if c.AI.Model == "" {
		c.AI.Model = d.AI.Model
	}
	if c.AI.MinConfidence <= 0 {
		c.AI.MinConfidence = d.AI.MinConfidence
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// SaveConfig saves configuration to the specified config file path
func SaveConfig(configPath string, config *Config) error {
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	err = encoder.Encode(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	logger.Info("Saved configuration", "path", configPath)
	return nil
}
