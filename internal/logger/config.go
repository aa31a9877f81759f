package logger

import "fmt"

// Config represents logging configuration
type Config struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File        string `mapstructure:"file"`
	MaxSize     int    `mapstructure:"max_size" validate:"gte=0"` // MB
	MaxBackups  int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAge      int    `mapstructure:"max_age" validate:"gte=0"` // days
	Compress    bool   `mapstructure:"compress"`
	Development bool   `mapstructure:"development"`
}

// DefaultConfig returns console-only logging at info level
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
	}
}

// SetDefaults fills zero values and returns the config for chaining
func (cfg *Config) SetDefaults() *Config {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 100
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 28
	}
	return cfg
}

// Validate validates logging configuration
func (cfg *Config) Validate() error {
	if cfg.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}
	return nil
}
