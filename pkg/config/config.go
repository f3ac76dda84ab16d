// Package config loads lookbook configuration from defaults, an optional
// TOML or YAML file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/papercomputeco/lookbook/pkg/completion"
	"github.com/papercomputeco/lookbook/pkg/imgur"
	"github.com/papercomputeco/lookbook/pkg/prompt"
	"github.com/papercomputeco/lookbook/pkg/storage"
)

// Environment variables read by Load.
const (
	EnvOpenAIKey          = "OPEN_AI_API_KEY"
	EnvModelName          = "MODEL_NAME"
	EnvImgurClientID      = "IMGUR_CLIENT_ID"
	EnvImgurClientSecret  = "IMGUR_CLIENT_SECRET"
	EnvStoreDriver        = "LOOKBOOK_STORE_DRIVER"
	EnvStorePath          = "LOOKBOOK_STORE_PATH"
	EnvListenAddr         = "LOOKBOOK_LISTEN"
	DefaultListenAddr     = ":8080"
	DefaultRequestTimeout = 2 * time.Minute
)

// Config is the complete lookbook configuration.
type Config struct {
	OpenAI OpenAI `toml:"openai" yaml:"openai"`
	Imgur  Imgur  `toml:"imgur" yaml:"imgur"`
	Store  Store  `toml:"store" yaml:"store"`
	Server Server `toml:"server" yaml:"server"`
	Log    Log    `toml:"log" yaml:"log"`
}

// OpenAI configures the completion client.
type OpenAI struct {
	APIKey      string   `toml:"api_key" yaml:"api_key"`
	Model       string   `toml:"model" yaml:"model"`
	BaseURL     string   `toml:"base_url" yaml:"base_url"`
	Temperature float64  `toml:"temperature" yaml:"temperature"`
	Timeout     Duration `toml:"timeout" yaml:"timeout"`
	PromptMode  string   `toml:"prompt_mode" yaml:"prompt_mode"` // "literal" or "template"
}

// Imgur configures the image host client.
type Imgur struct {
	ClientID     string   `toml:"client_id" yaml:"client_id"`
	ClientSecret string   `toml:"client_secret" yaml:"client_secret"`
	BaseURL      string   `toml:"base_url" yaml:"base_url"`
	Timeout      Duration `toml:"timeout" yaml:"timeout"`
}

// Store selects the metadata store.
type Store struct {
	Driver string `toml:"driver" yaml:"driver"` // "json", "bolt", "sqlite" or "memory"
	Path   string `toml:"path" yaml:"path"`     // empty selects public_Image_Url/publicUrl.json for json
}

// Server configures the web form and API.
type Server struct {
	ListenAddr string `toml:"listen" yaml:"listen"`
}

// Log configures the zap logger.
type Log struct {
	Debug  bool   `toml:"debug" yaml:"debug"`
	Format string `toml:"format" yaml:"format"` // "console" or "json"
}

// Duration is a time.Duration that decodes from strings such as "90s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler, used by the TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		OpenAI: OpenAI{
			BaseURL:     completion.DefaultBaseURL,
			Temperature: completion.DefaultTemperature,
			Timeout:     Duration{DefaultRequestTimeout},
			PromptMode:  string(prompt.ModeLiteral),
		},
		Imgur: Imgur{
			BaseURL: imgur.DefaultBaseURL,
			Timeout: Duration{DefaultRequestTimeout},
		},
		Store: Store{
			Driver: storage.DriverJSON,
		},
		Server: Server{
			ListenAddr: DefaultListenAddr,
		},
		Log: Log{
			Format: "console",
		},
	}
}

// Load builds the configuration. path is an optional .toml, .yaml or .yml
// file; dotenv is an optional .env file whose absence is not an error.
// Values already present in the environment win over the .env file.
func Load(path, dotenv string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}

	if dotenv != "" {
		err := godotenv.Load(dotenv)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, c); err != nil {
			return fmt.Errorf("decode config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("decode config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.OpenAI.APIKey, EnvOpenAIKey)
	setFromEnv(&c.OpenAI.Model, EnvModelName)
	setFromEnv(&c.Imgur.ClientID, EnvImgurClientID)
	setFromEnv(&c.Imgur.ClientSecret, EnvImgurClientSecret)
	setFromEnv(&c.Store.Driver, EnvStoreDriver)
	setFromEnv(&c.Store.Path, EnvStorePath)
	setFromEnv(&c.Server.ListenAddr, EnvListenAddr)
}

func setFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// Completion returns the completion client configuration.
func (c *Config) Completion() (completion.Config, error) {
	mode, err := prompt.ParseMode(c.OpenAI.PromptMode)
	if err != nil {
		return completion.Config{}, err
	}
	return completion.Config{
		APIKey:      c.OpenAI.APIKey,
		Model:       c.OpenAI.Model,
		BaseURL:     c.OpenAI.BaseURL,
		Temperature: c.OpenAI.Temperature,
		Timeout:     c.OpenAI.Timeout.Duration,
		PromptMode:  mode,
	}, nil
}

// ImgurClient returns the image host client configuration.
func (c *Config) ImgurClient() imgur.Config {
	return imgur.Config{
		ClientID:     c.Imgur.ClientID,
		ClientSecret: c.Imgur.ClientSecret,
		BaseURL:      c.Imgur.BaseURL,
		Timeout:      c.Imgur.Timeout.Duration,
	}
}

// Storage returns the metadata store configuration.
func (c *Config) Storage() storage.Config {
	return storage.Config{Driver: c.Store.Driver, Path: c.Store.Path}
}

// ValidateCompletion reports missing completion credentials.
func (c *Config) ValidateCompletion() error {
	var missing []string
	if c.OpenAI.APIKey == "" {
		missing = append(missing, EnvOpenAIKey)
	}
	if c.OpenAI.Model == "" {
		missing = append(missing, EnvModelName)
	}
	return missingErr(missing)
}

// ValidateUpload reports missing image host credentials.
func (c *Config) ValidateUpload() error {
	if c.Imgur.ClientID == "" {
		return missingErr([]string{EnvImgurClientID})
	}
	return nil
}

func missingErr(keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return fmt.Errorf("missing configuration: %s", strings.Join(keys, ", "))
}
