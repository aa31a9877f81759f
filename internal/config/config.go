package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"myip/internal/logger"
	"myip/internal/lookup"
	"myip/internal/validator"
)

// Output formats
const (
	OutputLog  = "log"
	OutputJSON = "json"
)

// Config represents the myip configuration
type Config struct {
	Endpoint EndpointConfig `mapstructure:"endpoint"`
	Log      logger.Config  `mapstructure:"log"`
	Output   OutputConfig   `mapstructure:"output"`
}

// EndpointConfig represents the IP endpoint configuration
type EndpointConfig struct {
	URL         string        `mapstructure:"url" validate:"required,httpurl"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0s"`
	MaxBodySize int64         `mapstructure:"max_body_size" validate:"gte=0"`
}

// OutputConfig controls how the lookup result is reported
type OutputConfig struct {
	Format string `mapstructure:"format" validate:"oneof=log json"`
}

// LookupConfig converts the endpoint settings for the lookup client
func (e EndpointConfig) LookupConfig() lookup.Config {
	return lookup.Config{
		URL:         e.URL,
		Timeout:     e.Timeout,
		MaxBodySize: e.MaxBodySize,
	}
}

// flagKeys maps command line flags onto configuration keys
var flagKeys = map[string]string{
	"url":           "endpoint.url",
	"timeout":       "endpoint.timeout",
	"max-body-size": "endpoint.max_body_size",
	"log-level":     "log.level",
	"log-file":      "log.file",
	"output":        "output.format",
}

// RegisterFlags adds the configuration flags to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "Path to config file")
	fs.String("url", lookup.DefaultURL, "IP endpoint URL")
	fs.Duration("timeout", 0, "Request timeout (0 leaves it to the transport)")
	fs.Int64("max-body-size", 0, "Maximum response body size in bytes (0 for no limit)")
	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.String("log-file", "", "Also write JSON logs to this rotating file")
	fs.StringP("output", "o", OutputLog, "Result output: log or json")
}

// LoadConfig loads the configuration from defaults, file, environment
// and flags, in increasing order of precedence. An empty path searches
// the default locations and tolerates a missing file.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(AppName)
		v.AddConfigPath(InDot)
		v.AddConfigPath(InHome)
		v.AddConfigPath(InHomeDot)
		v.AddConfigPath(InEtc)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so environment overrides are picked up
func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint.url", lookup.DefaultURL)
	v.SetDefault("endpoint.timeout", time.Duration(0))
	v.SetDefault("endpoint.max_body_size", int64(0))

	d := logger.DefaultConfig()
	v.SetDefault("log.level", d.Level)
	v.SetDefault("log.file", d.File)
	v.SetDefault("log.max_size", d.MaxSize)
	v.SetDefault("log.max_backups", d.MaxBackups)
	v.SetDefault("log.max_age", d.MaxAge)
	v.SetDefault("log.compress", d.Compress)
	v.SetDefault("log.development", d.Development)

	v.SetDefault("output.format", OutputLog)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return c.Log.Validate()
}
