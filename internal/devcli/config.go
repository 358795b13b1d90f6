package devcli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/apiesc/escuela-go/escuela"
)

// EnvPrefix prefixes every environment override, e.g. ESCUELA_BASE_URL.
const EnvPrefix = "ESCUELA"

// Reasonable defaults for interactive use.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultBackoffInit = 300 * time.Millisecond
	DefaultBackoffMax  = 3 * time.Second
	DefaultServerAddr  = ":8000"
)

// Config captures CLI-wide settings.
type Config struct {
	BaseURL     string        `mapstructure:"base_url"`
	TokenFile   string        `mapstructure:"token_file"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
	BackoffInit time.Duration `mapstructure:"backoff_init"`
	BackoffMax  time.Duration `mapstructure:"backoff_max"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	PageSize    int           `mapstructure:"page_size"`
	Debounce    time.Duration `mapstructure:"debounce"`
	LogLevel    string        `mapstructure:"log_level"`
	Color       string        `mapstructure:"color"`
	Server      ServerConfig  `mapstructure:"server"`
}

// ServerConfig configures the local development server.
type ServerConfig struct {
	Addr   string `mapstructure:"addr"`
	Secret string `mapstructure:"secret"`
	Seed   int    `mapstructure:"seed"`
}

// NewViper returns a viper instance with defaults and environment binding.
// A .env file in the working directory is loaded into the environment first.
func NewViper() *viper.Viper {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", escuela.DefaultBaseURL)
	v.SetDefault("token_file", defaultTokenFile())
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("retries", 0)
	v.SetDefault("backoff_init", DefaultBackoffInit)
	v.SetDefault("backoff_max", DefaultBackoffMax)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("page_size", escuela.DefaultPageSize)
	v.SetDefault("debounce", escuela.DefaultDebounce)
	v.SetDefault("log_level", "warn")
	v.SetDefault("color", "auto")
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.secret", "escuela-dev-secret")
	v.SetDefault("server.seed", 45)
}

// LoadConfig reads cfgFile, or .escuela.yaml from the working directory or
// the user config directory, and unmarshals the merged settings.
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".escuela")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "escuela"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base_url is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if _, err := ParseColorMode(c.Color); err != nil {
		return err
	}
	return nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".escuela-token"
	}
	return filepath.Join(dir, "escuela", "token")
}
