package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // holiday.timezone must resolve on hosts without a zoneinfo database

	"github.com/spf13/viper"
)

// Holiday source types
const (
	SourceEmbedded  = "embedded"
	SourceDir       = "dir"
	SourceRemote    = "remote"
	SourceComposite = "composite"
)

// EnvPrefix prefixes environment overrides, e.g. HOLIDAY_API_SERVER_PORT
const EnvPrefix = "HOLIDAY_API"

// Config represents application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Holiday HolidayConfig `mapstructure:"holiday"`
	Daemon  DaemonConfig  `mapstructure:"daemon"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Address         string `mapstructure:"address"`
	Port            int    `mapstructure:"port"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

// HolidayConfig represents holiday reference data configuration
type HolidayConfig struct {
	Source        string `mapstructure:"source"`   // embedded, dir, remote or composite
	DataDir       string `mapstructure:"data_dir"` // {year}.json files for dir and composite
	RemoteURL     string `mapstructure:"remote_url"`
	RemoteTimeout string `mapstructure:"remote_timeout"`
	RemoteFirst   int    `mapstructure:"remote_first_year"` // First year probed when listing the remote source
	MissTTL       string `mapstructure:"miss_ttl"`          // How long a year without data is not re-read
	Watch         bool   `mapstructure:"watch"` // Invalidate cache when data_dir changes
	Timezone      string `mapstructure:"timezone"`
}

// DaemonConfig represents daemon mode configuration
type DaemonConfig struct {
	DailyTime  string `mapstructure:"daily_time"` // Daily cache refresh (HH:MM, holiday.timezone)
	LogFile    string `mapstructure:"log_file"`
	LogLevel   string `mapstructure:"log_level"`
	SystemTray bool   `mapstructure:"system_tray"` // Show system tray icon (Windows only)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("holiday.source", SourceEmbedded)
	v.SetDefault("holiday.data_dir", "holiday")
	v.SetDefault("holiday.remote_url", "https://raw.githubusercontent.com/NateScarlet/holiday-cn/master/{year}.json")
	v.SetDefault("holiday.remote_timeout", "10s")
	v.SetDefault("holiday.remote_first_year", 2007)
	v.SetDefault("holiday.miss_ttl", "5m")
	v.SetDefault("holiday.watch", false)
	v.SetDefault("holiday.timezone", "Asia/Shanghai")

	v.SetDefault("daemon.daily_time", "03:00")
	v.SetDefault("daemon.log_file", "")
	v.SetDefault("daemon.log_level", "info")
	v.SetDefault("daemon.system_tray", false)
}

// Load loads configuration from file and environment.
// A missing config file is not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.holiday-api")
		v.AddConfigPath("/etc/holiday-api")
	}

	// Read environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Holiday.Source {
	case SourceEmbedded:
	case SourceDir:
		if c.Holiday.DataDir == "" {
			return fmt.Errorf("holiday.data_dir is required for dir source")
		}
	case SourceRemote:
		if !strings.Contains(c.Holiday.RemoteURL, "{year}") {
			return fmt.Errorf("holiday.remote_url must contain a {year} placeholder")
		}
	case SourceComposite:
		if !strings.Contains(c.Holiday.RemoteURL, "{year}") {
			return fmt.Errorf("holiday.remote_url must contain a {year} placeholder")
		}
		if c.Holiday.DataDir == "" {
			return fmt.Errorf("holiday.data_dir is required for composite source")
		}
	default:
		return fmt.Errorf("holiday.source must be one of embedded, dir, remote, composite; got '%s'", c.Holiday.Source)
	}

	if c.Holiday.Watch && c.Holiday.Source != SourceDir && c.Holiday.Source != SourceComposite {
		return fmt.Errorf("holiday.watch requires a dir or composite source")
	}

	if _, err := c.Holiday.Location(); err != nil {
		return err
	}

	return nil
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// GetShutdownTimeout returns graceful shutdown timeout
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout == "" {
		return 10 * time.Second
	}
	duration, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return duration
}

// GetRemoteTimeout returns the HTTP timeout of the remote source
func (c *HolidayConfig) GetRemoteTimeout() time.Duration {
	if c.RemoteTimeout == "" {
		return 10 * time.Second
	}
	duration, err := time.ParseDuration(c.RemoteTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return duration
}

// GetMissTTL returns how long missing or failed years are served from the weekend rule
func (c *HolidayConfig) GetMissTTL() time.Duration {
	if c.MissTTL == "" {
		return 5 * time.Minute
	}
	duration, err := time.ParseDuration(c.MissTTL)
	if err != nil {
		return 5 * time.Minute
	}
	return duration
}

// Location returns the calendar's time zone
func (c *HolidayConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("holiday.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// GetDailyTime returns the configured daily refresh time.
// Returns hour and minute (0-23, 0-59). Default: 03:00
func (c *DaemonConfig) GetDailyTime() (hour, minute int) {
	if c.DailyTime == "" {
		return 3, 0
	}

	var h, m int
	_, err := fmt.Sscanf(c.DailyTime, "%d:%d", &h, &m)
	if err != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 3, 0 // Fallback to default
	}
	return h, m
}
