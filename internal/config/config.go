// Package config loads toolchat settings: built-in defaults, then an optional TOML file,
// then environment variables. Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/m2tx/toolchat/internal/completions"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "toolchat.toml"

const maxRetries = 10

type LLMConfig struct {
	Endpoint         string  `toml:"endpoint"`
	Model            string  `toml:"model"`
	APIKey           string  `toml:"api_key,omitempty"`
	TimeoutSeconds   int     `toml:"timeout_seconds"`
	MaxRetries       int     `toml:"max_retries"`
	Temperature      float64 `toml:"temperature"`
	TopP             float64 `toml:"top_p"`
	MaxTokens        int     `toml:"max_tokens"`
	PresencePenalty  float64 `toml:"presence_penalty"`
	FrequencyPenalty float64 `toml:"frequency_penalty"`
}

type AgentConfig struct {
	MaxSteps int `toml:"max_steps"`
	// SystemPrompt replaces the bundled system prompt when set.
	SystemPrompt string `toml:"system_prompt,omitempty"`
}

type ServerConfig struct {
	Port      int    `toml:"port"`
	StaticDir string `toml:"static_dir"`
}

type ToolsConfig struct {
	DocsDir string `toml:"docs_dir"`
	// EmbeddingModel selects Gemini embeddings for search_docs; empty means local hashing.
	EmbeddingModel string `toml:"embedding_model,omitempty"`
}

type MongoConfig struct {
	URI      string `toml:"uri,omitempty"`
	Database string `toml:"database"`
}

type Config struct {
	LLM      LLMConfig    `toml:"llm"`
	Agent    AgentConfig  `toml:"agent"`
	Server   ServerConfig `toml:"server"`
	Tools    ToolsConfig  `toml:"tools"`
	Mongo    MongoConfig  `toml:"mongo"`
	Markdown bool         `toml:"markdown"`
	Debug    bool         `toml:"debug"`
}

func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Endpoint:       "http://127.0.0.1:8080/v1/chat/completions",
			Model:          "llama-3.1-8b-instruct",
			TimeoutSeconds: 600,
			MaxRetries:     completions.DefaultMaxAttempts,
			Temperature:    0.7,
			TopP:           0.95,
			MaxTokens:      4096,
		},
		Agent: AgentConfig{
			MaxSteps: 20,
		},
		Server: ServerConfig{
			Port:      8000,
			StaticDir: "static",
		},
		Tools: ToolsConfig{
			DocsDir: "docs",
		},
		Mongo: MongoConfig{
			Database: "toolchat",
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path and the environment.
// An empty path falls back to DefaultFile, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("TOOLCHAT_ENDPOINT"); v != "" {
		c.LLM.Endpoint = v
	}
	if v := os.Getenv("TOOLCHAT_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("TOOLCHAT_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("TOOLCHAT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: TOOLCHAT_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("TOOLCHAT_STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := os.Getenv("TOOLCHAT_DOCS_DIR"); v != "" {
		c.Tools.DocsDir = v
	}
	if v := os.Getenv("TOOLCHAT_EMBEDDING_MODEL"); v != "" {
		c.Tools.EmbeddingModel = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("MONGODB_DB"); v != "" {
		c.Mongo.Database = v
	}
	if CheckDebug() {
		c.Debug = true
	}
	return nil
}

// CheckDebug reports whether TOOLCHAT_DEBUG turns debug logging on.
func CheckDebug() bool {
	debug := os.Getenv("TOOLCHAT_DEBUG")
	return debug == "true" || debug == "1"
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.LLM.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: endpoint %q is not an http(s) URL", c.LLM.Endpoint)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("config: model is required")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: timeout_seconds must be positive, got %d", c.LLM.TimeoutSeconds)
	}
	if c.LLM.MaxRetries < 1 || c.LLM.MaxRetries > maxRetries {
		return fmt.Errorf("config: max_retries must be within [1, %d], got %d", maxRetries, c.LLM.MaxRetries)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("config: temperature must be within [0, 2], got %g", c.LLM.Temperature)
	}
	if c.LLM.TopP <= 0 || c.LLM.TopP > 1 {
		return fmt.Errorf("config: top_p must be within (0, 1], got %g", c.LLM.TopP)
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("config: max_tokens must not be negative, got %d", c.LLM.MaxTokens)
	}
	if c.Agent.MaxSteps < 1 {
		return fmt.Errorf("config: max_steps must be at least 1, got %d", c.Agent.MaxSteps)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: port must be within [1, 65535], got %d", c.Server.Port)
	}
	return nil
}

// Completions returns the client settings.
func (c *Config) Completions() completions.Config {
	return completions.Config{
		Endpoint:         c.LLM.Endpoint,
		Model:            c.LLM.Model,
		APIKey:           c.LLM.APIKey,
		Timeout:          time.Duration(c.LLM.TimeoutSeconds) * time.Second,
		MaxRetries:       c.LLM.MaxRetries,
		Temperature:      c.LLM.Temperature,
		TopP:             c.LLM.TopP,
		MaxTokens:        c.LLM.MaxTokens,
		PresencePenalty:  c.LLM.PresencePenalty,
		FrequencyPenalty: c.LLM.FrequencyPenalty,
	}
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}

// NewLogger returns a text logger on w, at debug level when debug is set.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
