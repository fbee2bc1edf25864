// Package config loads and validates the server's configuration from a
// file, environment variables, and defaults, following the teacher's
// viper + mapstructure + validator pattern.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ServerConfig controls the TCP tick-database listener.
type ServerConfig struct {
	Host      string `mapstructure:"host" yaml:"host" validate:"required"`
	Port      int    `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	Verbosity uint   `mapstructure:"verbosity" yaml:"verbosity"`
}

// StoreConfig controls where and how update data is persisted.
type StoreConfig struct {
	DtfFolder     string `mapstructure:"dtf_folder" yaml:"dtf_folder" validate:"required"`
	Autoflush     bool   `mapstructure:"autoflush" yaml:"autoflush"`
	FlushInterval uint32 `mapstructure:"flush_interval" yaml:"flush_interval" validate:"min=0"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
	Output string `mapstructure:"output" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing export.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate" validate:"min=0,max=1"`
}

// MetricsConfig controls the Prometheus HTTP listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
}

// ControlPlaneConfig controls the admin HTTP API.
type ControlPlaneConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Listen    string        `mapstructure:"listen" yaml:"listen"`
	JWTSecret string        `mapstructure:"jwt_secret" yaml:"jwt_secret" validate:"required_if=Enabled true"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

// DatabaseConfig controls the control-plane's backing SQL database.
type DatabaseConfig struct {
	Type     string `mapstructure:"type" yaml:"type" validate:"oneof=sqlite postgres"`
	DSN      string `mapstructure:"dsn" yaml:"dsn"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Name     string `mapstructure:"name" yaml:"name"`
}

// BackupConfig controls S3-backed backup/restore.
type BackupConfig struct {
	Bucket string `mapstructure:"bucket" yaml:"bucket"`
	Region string `mapstructure:"region" yaml:"region"`
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
}

// Config is the complete server configuration tree.
type Config struct {
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Store        StoreConfig        `mapstructure:"store" yaml:"store"`
	Logging      LoggingConfig      `mapstructure:"logging" yaml:"logging"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics      MetricsConfig      `mapstructure:"metrics" yaml:"metrics"`
	ControlPlane ControlPlaneConfig `mapstructure:"control_plane" yaml:"control_plane"`
	Database     DatabaseConfig     `mapstructure:"database" yaml:"database"`
	Backup       BackupConfig       `mapstructure:"backup" yaml:"backup"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 7878, Verbosity: 0},
		Store:  StoreConfig{DtfFolder: "./data", Autoflush: true, FlushInterval: 1000},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Telemetry: TelemetryConfig{Enabled: false, SampleRate: 0.1},
		Metrics:   MetricsConfig{Enabled: true, Listen: ":9090"},
		ControlPlane: ControlPlaneConfig{
			Enabled:  false,
			Listen:   ":8080",
			TokenTTL: time.Hour,
		},
		Database: DatabaseConfig{Type: "sqlite", DSN: "./tectonic.db"},
	}
}

// Load reads configuration from path (if non-empty), then environment
// variables prefixed TECTONIC_, layered over Default, and validates the
// result.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("TECTONIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid: %w", err)
	}

	return cfg, nil
}

// MustLoad loads the configuration at path, or the default location if
// path is empty, returning an actionable error pointing at `tectonic init`
// when no file can be found.
func MustLoad(path string) (Config, error) {
	if path == "" {
		if !DefaultConfigExists() {
			return Config{}, fmt.Errorf("no configuration file found at %s\n\n"+
				"initialize one with:\n  tectonic init\n\n"+
				"or point at an existing file with --config", DefaultConfigPath())
		}
		path = DefaultConfigPath()
	} else if _, err := os.Stat(path); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("configuration file not found: %s", path)
	}
	return Load(path)
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tectonic")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "tectonic")
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultConfigExists reports whether a file exists at DefaultConfigPath.
func DefaultConfigExists() bool {
	_, err := os.Stat(DefaultConfigPath())
	return err == nil
}

// Init writes a sample configuration file (with a freshly generated JWT
// secret) to path, or to DefaultConfigPath if path is empty. It refuses to
// overwrite an existing file unless force is true.
func Init(path string, force bool) (string, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("config: create %s: %w", dir, err)
		}
	}

	secret, err := randomHex(32)
	if err != nil {
		return "", fmt.Errorf("config: generate jwt secret: %w", err)
	}

	cfg := Default()
	cfg.ControlPlane.JWTSecret = secret

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.verbosity", d.Server.Verbosity)
	v.SetDefault("store.dtf_folder", d.Store.DtfFolder)
	v.SetDefault("store.autoflush", d.Store.Autoflush)
	v.SetDefault("store.flush_interval", d.Store.FlushInterval)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.sample_rate", d.Telemetry.SampleRate)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.listen", d.Metrics.Listen)
	v.SetDefault("control_plane.enabled", d.ControlPlane.Enabled)
	v.SetDefault("control_plane.listen", d.ControlPlane.Listen)
	v.SetDefault("control_plane.token_ttl", d.ControlPlane.TokenTTL)
	v.SetDefault("database.type", d.Database.Type)
	v.SetDefault("database.dsn", d.Database.DSN)
}
