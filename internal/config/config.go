package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/image-chat/pkg/openai"
	"github.com/menta2k/image-chat/pkg/prompt"
)

// EnvPrefix prefixes environment overrides, e.g. IMAGECHAT_COMPLETION_MODEL
const EnvPrefix = "IMAGECHAT"

// Config holds the application configuration
type Config struct {
	Completion CompletionConfig `mapstructure:"completion" yaml:"completion"`
	Image      ImageConfig      `mapstructure:"image" yaml:"image"`
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// CompletionConfig selects and tunes the vision backend
type CompletionConfig struct {
	Backend           string `mapstructure:"backend" yaml:"backend"`
	Model             string `mapstructure:"model" yaml:"model"`
	MaxTokens         int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	MarkdownDirective bool   `mapstructure:"markdown_directive" yaml:"markdown_directive"`
	Prompt            string `mapstructure:"prompt" yaml:"prompt"`
}

// ImageConfig controls optional downscaling before upload
type ImageConfig struct {
	MaxDimension int `mapstructure:"max_dimension" yaml:"max_dimension"`
	Quality      int `mapstructure:"quality" yaml:"quality"`
}

// StoreConfig selects where credentials are persisted
type StoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// ServerConfig holds HTTP surface settings
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Backend names
const (
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
)

// Store drivers
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Completion: CompletionConfig{
			Backend:           BackendOpenAI,
			Model:             openai.DefaultModel,
			MaxTokens:         openai.DefaultMaxTokens,
			MarkdownDirective: false,
			Prompt:            prompt.Default,
		},
		Image: ImageConfig{
			MaxDimension: 0,
			Quality:      85,
		},
		Store: StoreConfig{
			Driver: StoreFile,
			Path:   filepath.Join(configDir(), "credentials.yaml"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration file at path on top of the defaults and applies
// IMAGECHAT_* environment overrides. An empty path loads defaults and
// environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("completion.backend", d.Completion.Backend)
	v.SetDefault("completion.model", d.Completion.Model)
	v.SetDefault("completion.max_tokens", d.Completion.MaxTokens)
	v.SetDefault("completion.markdown_directive", d.Completion.MarkdownDirective)
	v.SetDefault("completion.prompt", d.Completion.Prompt)
	v.SetDefault("image.max_dimension", d.Image.MaxDimension)
	v.SetDefault("image.quality", d.Image.Quality)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Completion.Backend {
	case BackendOpenAI, BackendOllama:
	default:
		return fmt.Errorf("completion.backend must be %q or %q", BackendOpenAI, BackendOllama)
	}

	if strings.TrimSpace(c.Completion.Model) == "" {
		return fmt.Errorf("completion.model cannot be empty")
	}

	if c.Completion.MaxTokens < 1 {
		return fmt.Errorf("completion.max_tokens must be positive")
	}

	if c.Image.MaxDimension < 0 {
		return fmt.Errorf("image.max_dimension cannot be negative")
	}

	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		return fmt.Errorf("image.quality must be between 1 and 100")
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StoreFile, StoreSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("store.path cannot be empty for driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("store.driver must be one of file, sqlite, memory")
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "image-chat")
}
