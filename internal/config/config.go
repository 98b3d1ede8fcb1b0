package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"BARTHub/internal/model"
)

// Config holds all application configuration.
type Config struct {
	BalloonParameters struct {
		NumBlocks        int                 `yaml:"num_blocks"`
		BalloonsPerBlock int                 `yaml:"balloons_per_block"`
		BlockSettings    []model.BlockConfig `yaml:"block_settings"`
	} `yaml:"balloon_parameters"`
	Standard struct {
		CentsPerPump int `yaml:"cents_per_pump"`
	} `yaml:"standard"`
	Preset struct {
		CentsPerPump int     `yaml:"cents_per_pump"`
		InputTimeout float64 `yaml:"input_timeout"` // seconds
	} `yaml:"preset"`
	Auto struct {
		CentsPerPump   int     `yaml:"cents_per_pump"`
		InflationSpeed float64 `yaml:"inflation_speed"` // seconds between pumps
	} `yaml:"auto"`
	Points struct {
		PointsPerPump   int              `yaml:"points_per_pump"`
		PrizeThresholds model.Thresholds `yaml:"prize_thresholds"`
	} `yaml:"bart_y"`
	Subject         model.Subject `yaml:"subject"`
	OutputDirectory string        `yaml:"output_directory"`
	Database        struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Seed uint64 `yaml:"seed"`
}

// Default returns the configuration used when no file is present. Load
// decodes on top of it, so keys missing from the file keep these values
// while explicit zeros reach Validate.
func Default() *Config {
	cfg := &Config{}
	bp := &cfg.BalloonParameters
	bp.NumBlocks = 3
	bp.BalloonsPerBlock = 10
	bp.BlockSettings = []model.BlockConfig{
		{MaxPumpCount: 128, Color: model.ColorBlue},
		{MaxPumpCount: 128, Color: model.ColorRed},
		{MaxPumpCount: 128, Color: model.ColorGreen},
	}
	cfg.Standard.CentsPerPump = 5
	cfg.Preset.CentsPerPump = 5
	cfg.Preset.InputTimeout = 10
	cfg.Auto.CentsPerPump = 5
	cfg.Auto.InflationSpeed = 1.5
	cfg.Points.PointsPerPump = 100
	cfg.Points.PrizeThresholds = model.Thresholds{Small: 5000, Medium: 10000, Large: 15000, Bonus: 20000}
	cfg.Subject = model.Subject{Age: "18", Sex: "M", Session: "1"}
	cfg.OutputDirectory = "~/BART_Data"
	return cfg
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("BART_OUTPUT_DIR"); v != "" {
		cfg.OutputDirectory = v
	}
	if v := os.Getenv("BART_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("BART_SUBJECT_ID"); v != "" {
		cfg.Subject.ID = v
	}
	if v := os.Getenv("BART_SESSION"); v != "" {
		cfg.Subject.Session = v
	}
	if v := os.Getenv("BART_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse BART_SEED: %w", err)
		}
		cfg.Seed = seed
	}

	return cfg, nil
}

// Validate checks that every value can drive a session.
func (c *Config) Validate() error {
	bp := c.BalloonParameters
	if bp.NumBlocks <= 0 {
		return fmt.Errorf("balloon_parameters.num_blocks must be positive")
	}
	if bp.BalloonsPerBlock <= 0 {
		return fmt.Errorf("balloon_parameters.balloons_per_block must be positive")
	}
	if len(bp.BlockSettings) == 0 {
		return fmt.Errorf("balloon_parameters.block_settings is required")
	}
	for i, b := range bp.BlockSettings {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("balloon_parameters.block_settings[%d]: %w", i, err)
		}
	}
	if c.Standard.CentsPerPump < 0 || c.Preset.CentsPerPump < 0 || c.Auto.CentsPerPump < 0 {
		return fmt.Errorf("cents_per_pump must not be negative")
	}
	if c.Points.PointsPerPump < 0 {
		return fmt.Errorf("bart_y.points_per_pump must not be negative")
	}
	if c.Preset.InputTimeout <= 0 {
		return fmt.Errorf("preset.input_timeout must be positive")
	}
	if c.Auto.InflationSpeed <= 0 {
		return fmt.Errorf("auto.inflation_speed must be positive")
	}
	if err := c.Points.PrizeThresholds.Validate(); err != nil {
		return fmt.Errorf("bart_y.prize_thresholds: %w", err)
	}
	if c.OutputDirectory == "" {
		return fmt.Errorf("output_directory is required")
	}
	return nil
}

// SessionConfig builds the controller configuration for one variant.
func (c *Config) SessionConfig(v model.Variant) model.SessionConfig {
	bp := c.BalloonParameters
	sc := model.SessionConfig{
		Variant:           v,
		BlockCount:        bp.NumBlocks,
		BalloonsPerBlock:  bp.BalloonsPerBlock,
		Blocks:            append([]model.BlockConfig(nil), bp.BlockSettings...),
		InputTimeout:      seconds(c.Preset.InputTimeout),
		InflationInterval: seconds(c.Auto.InflationSpeed),
		Prizes:            c.Points.PrizeThresholds,
		Subject:           c.Subject,
		Seed:              c.Seed,
	}
	switch v {
	case model.VariantPreset:
		sc.UnitPayout = c.Preset.CentsPerPump
	case model.VariantAuto:
		sc.UnitPayout = c.Auto.CentsPerPump
	case model.VariantPoints:
		sc.UnitPayout = c.Points.PointsPerPump
	default:
		sc.UnitPayout = c.Standard.CentsPerPump
	}
	return sc
}

// OutputDir returns the output directory with a leading ~ expanded.
func (c *Config) OutputDir() string {
	return expandHome(c.OutputDirectory)
}

// SQLitePath returns the database path with a leading ~ expanded, or "" when
// the database sink is disabled.
func (c *Config) SQLitePath() string {
	return expandHome(c.Database.SQLitePath)
}

// Save writes the configuration as YAML, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp, path)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
