/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/gdr/pkg/codec"
)

// Config represents the gdr configuration
type Config struct {
	DataDir  string   `yaml:"data_dir" env:"GDR_DATA_DIR"`
	Port     int      `yaml:"port" env:"GDR_PORT"`
	Bind     string   `yaml:"bind" env:"GDR_BIND"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
	Codec    Codec    `yaml:"codec"`
}

// Security contains security-related configuration
type Security struct {
	APIKey string `yaml:"api_key" env:"GDR_API_KEY"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level" env:"GDR_LOG_LEVEL"`
	Format string `yaml:"format" env:"GDR_LOG_FORMAT"`
}

// Codec contains replay codec configuration
type Codec struct {
	MaxPayloadBytes int    `yaml:"max_payload_bytes" env:"GDR_MAX_PAYLOAD_BYTES"`
	DefaultFormat   string `yaml:"default_format" env:"GDR_DEFAULT_FORMAT"`
	PassThrough     bool   `yaml:"pass_through"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Security: Security{
			APIKey: "auto",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Codec: Codec{
			MaxPayloadBytes: codec.DefaultMaxPayloadSize,
			DefaultFormat:   codec.FormatBinary.String(),
			PassThrough:     true,
		},
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Codec.MaxPayloadBytes <= 0 {
		return fmt.Errorf("codec.max_payload_bytes must be positive, got %d", c.Codec.MaxPayloadBytes)
	}
	if _, err := codec.ParseFormat(c.Codec.DefaultFormat); err != nil {
		return fmt.Errorf("codec.default_format: %w", err)
	}
	return nil
}

// DefaultFormat returns the configured default output encoding
func (c *Config) DefaultFormat() codec.Format {
	format, err := codec.ParseFormat(c.Codec.DefaultFormat)
	if err != nil {
		return codec.FormatBinary
	}
	return format
}

// CodecOptions returns the codec options described by the configuration
func (c *Config) CodecOptions() []codec.Option {
	opts := []codec.Option{codec.WithMaxPayloadSize(c.Codec.MaxPayloadBytes)}
	if c.Codec.PassThrough {
		opts = append(opts, codec.WithExtensions(codec.PassThrough{}))
	}
	return opts
}

// ApplyEnv overrides configuration values with any GDR_* environment
// variables that are set
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Resolve loads the config file when it exists, falls back to defaults when it
// does not, and applies environment overrides on top
func Resolve(configPath string) (*Config, error) {
	config := DefaultConfig()
	if configPath != "" && ConfigExists(configPath) {
		loaded, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates a new configuration with a generated API key and
// writes it to configPath
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./gdr.yaml"
	}

	// For Linux/macOS, use ~/.config/gdr/config.yaml
	configDir := filepath.Join(homeDir, ".config", "gdr")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
