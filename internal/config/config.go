package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration knobs for the portal.
type Config struct {
	HTTP struct {
		Addr         string        `mapstructure:"addr"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"http"`
	Storage struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"storage"`
	Auth struct {
		Enabled        bool          `mapstructure:"enabled"`
		Username       string        `mapstructure:"username"`
		Password       string        `mapstructure:"password"`
		JWTSecret      string        `mapstructure:"jwt_secret"`
		SessionTTL     time.Duration `mapstructure:"session_ttl"`
		ResolveTimeout time.Duration `mapstructure:"resolve_timeout"`
		CookieName     string        `mapstructure:"cookie_name"`
		CookieSecure   bool          `mapstructure:"cookie_secure"`
	} `mapstructure:"auth"`
	Views struct {
		IdleTTL         time.Duration `mapstructure:"idle_ttl"`
		DisplayTimezone string        `mapstructure:"display_timezone"`
	} `mapstructure:"views"`
	Alert struct {
		Enabled        bool          `mapstructure:"enabled"`
		BaseURL        string        `mapstructure:"base_url"`
		Token          string        `mapstructure:"token"`
		DeviceKey      string        `mapstructure:"device_key"`
		EncodeKey      string        `mapstructure:"encode_key"`
		IV             string        `mapstructure:"iv"`
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
	} `mapstructure:"alert"`
	Log struct {
		Env   string `mapstructure:"env"`
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Frontend struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"frontend"`
}

// Location resolves the display timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c == nil || c.Views.DisplayTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Views.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads the configuration from disk/environment using Viper.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("contact_admin")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, env and defaults still apply
		if !isNotFound(err) {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Views.DisplayTimezone); err != nil {
		return nil, fmt.Errorf("views.display_timezone: %w", err)
	}
	return &cfg, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	// SetConfigFile with an explicit path reports a missing file as an fs error.
	return errors.Is(err, fs.ErrNotExist)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8090")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "30s")

	v.SetDefault("storage.path", "./data/contact-admin.db")

	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password", "admin123")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.session_ttl", "12h")
	v.SetDefault("auth.resolve_timeout", "3s")
	v.SetDefault("auth.cookie_name", "contact_admin_session")
	v.SetDefault("auth.cookie_secure", false)

	v.SetDefault("views.idle_ttl", "30m")
	v.SetDefault("views.display_timezone", "UTC")

	v.SetDefault("alert.enabled", false)
	v.SetDefault("alert.base_url", "http://127.0.0.1:8080")
	v.SetDefault("alert.token", "")
	v.SetDefault("alert.device_key", "")
	v.SetDefault("alert.encode_key", "")
	v.SetDefault("alert.iv", "")
	v.SetDefault("alert.request_timeout", "10s")

	v.SetDefault("log.env", "development")
	v.SetDefault("log.level", "info")

	v.SetDefault("frontend.dir", "")
}
