// Package config loads engine settings from a YAML file and WILLOW_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/talgya/willow-creek/internal/clock"
)

// EnvPrefix is the prefix of environment overrides, e.g. WILLOW_SEED.
const EnvPrefix = "WILLOW"

// Start is the calendar moment a new world begins at.
type Start struct {
	Year  int     `mapstructure:"year"`
	Month int     `mapstructure:"month"`
	Day   int     `mapstructure:"day"`
	Hour  float64 `mapstructure:"hour"`
}

// Date returns the start as a clock date.
func (s Start) Date() clock.Date {
	return clock.Date{Day: s.Day, Month: s.Month, Year: s.Year}
}

// Config holds every setting of the worldsim command.
type Config struct {
	Seed              int64   `mapstructure:"seed"`
	HoursPerTick      float64 `mapstructure:"hours_per_tick"`
	Steps             int     `mapstructure:"steps"` // 0 runs until interrupted
	DaysPerMonth      int     `mapstructure:"days_per_month"`
	Start             Start   `mapstructure:"start"`
	CheckpointDir     string  `mapstructure:"checkpoint_dir"`
	RosterPath        string  `mapstructure:"roster_path"`
	TuningPath        string  `mapstructure:"tuning_path"` // empty uses built-in tuning
	LogLevel          string  `mapstructure:"log_level"`
	AutosaveEveryDays int     `mapstructure:"autosave_every_days"` // 0 disables autosave
	ResumeFrom        string  `mapstructure:"resume_from"`         // checkpoint name to load at startup
}

// Load reads the config file at path (if any), applies WILLOW_* overrides,
// and validates the result. A missing file falls back to the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfig(v, path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// readConfig reads path, or ./worldsim.yaml when path is empty. A missing
// file is not an error.
func readConfig(v *viper.Viper, path string) error {
	v.SetConfigType("yaml")
	if path == "" {
		v.SetConfigName("worldsim")
		v.AddConfigPath(".")
	} else {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			slog.Debug("config file not found, using defaults", "path", path)
			return nil
		}
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Debug("no config file, using defaults")
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("seed", 42)
	v.SetDefault("hours_per_tick", 1.0)
	v.SetDefault("steps", 24*30)
	v.SetDefault("days_per_month", clock.DefaultDaysPerMonth)

	v.SetDefault("start.year", 2025)
	v.SetDefault("start.month", 4)
	v.SetDefault("start.day", 1)
	v.SetDefault("start.hour", 7.0)

	v.SetDefault("checkpoint_dir", "data/checkpoints")
	v.SetDefault("roster_path", "roster.yaml")
	v.SetDefault("tuning_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("autosave_every_days", 1)
	v.SetDefault("resume_from", "")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if !(cfg.HoursPerTick > 0) || cfg.HoursPerTick > 24 {
		return fmt.Errorf("hours_per_tick must be in (0, 24], got %v", cfg.HoursPerTick)
	}
	if cfg.Steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d", cfg.Steps)
	}
	if cfg.DaysPerMonth < 1 || cfg.DaysPerMonth > 31 {
		return fmt.Errorf("days_per_month must be in [1, 31], got %d", cfg.DaysPerMonth)
	}
	s := cfg.Start
	if s.Month < 1 || s.Month > clock.MonthsPerYear {
		return fmt.Errorf("start.month must be in [1, %d], got %d", clock.MonthsPerYear, s.Month)
	}
	if s.Day < 1 || s.Day > cfg.DaysPerMonth {
		return fmt.Errorf("start.day must be in [1, %d], got %d", cfg.DaysPerMonth, s.Day)
	}
	if s.Hour < 0 || s.Hour >= 24 {
		return fmt.Errorf("start.hour must be in [0, 24), got %v", s.Hour)
	}
	if cfg.CheckpointDir == "" {
		return fmt.Errorf("checkpoint_dir is required")
	}
	if cfg.RosterPath == "" {
		return fmt.Errorf("roster_path is required")
	}
	if cfg.AutosaveEveryDays < 0 {
		return fmt.Errorf("autosave_every_days must not be negative, got %d", cfg.AutosaveEveryDays)
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log level name to its slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log_level must be debug, info, warn or error, got %q", name)
}
