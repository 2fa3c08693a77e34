package config

import (
	"fmt"
	"time"
)

// Unknown tool policies for the chat orchestrator
const (
	UnknownToolSynthesize = "synthesize"
	UnknownToolFail       = "fail"
)

// User directory modes
const (
	DirectoryModeHTTP  = "http"
	DirectoryModeLocal = "local"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string   `mapstructure:"host" yaml:"host"`
	Port            int      `mapstructure:"port" yaml:"port"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"` // Seconds
	CORSOrigins     []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// AuthConfig holds token and password hashing configuration
type AuthConfig struct {
	SecretKey       string `mapstructure:"secret_key" yaml:"secret_key"`
	TokenTTLMinutes int    `mapstructure:"token_ttl_minutes" yaml:"token_ttl_minutes"`
	BcryptCost      int    `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider    string  `mapstructure:"provider" yaml:"provider"` // openai, anthropic, ollama
	Model       string  `mapstructure:"model" yaml:"model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"` // Optional, for OpenAI-compatible proxies
	Timeout     int     `mapstructure:"timeout" yaml:"timeout"`   // Timeout in seconds
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
}

// UserDirectoryModeConfig selects where get_user_info looks accounts up
type UserDirectoryModeConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"` // http, local
}

// ChatConfig holds chat orchestrator configuration
type ChatConfig struct {
	TurnTimeout       int                     `mapstructure:"turn_timeout" yaml:"turn_timeout"` // Seconds
	UnknownToolPolicy string                  `mapstructure:"unknown_tool_policy" yaml:"unknown_tool_policy"`
	PromptsDir        string                  `mapstructure:"prompts_dir" yaml:"prompts_dir"`
	UserDirectory     UserDirectoryModeConfig `mapstructure:"user_directory" yaml:"user_directory"`
}

// UserDirConfig holds the service credential used by the HTTP user directory
type UserDirConfig struct {
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	TokenTTL int    `mapstructure:"token_ttl" yaml:"token_ttl"` // Seconds
	Timeout  int    `mapstructure:"timeout" yaml:"timeout"`     // Seconds
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	LogDir string `mapstructure:"log_dir" yaml:"log_dir"`
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // console, json
}

// Config holds the full application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Chat    ChatConfig    `mapstructure:"chat" yaml:"chat"`
	UserDir UserDirConfig `mapstructure:"userdir" yaml:"userdir"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetShutdownTimeout returns the graceful shutdown timeout
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout == 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// GetTokenTTL returns the access token lifetime
func (c *AuthConfig) GetTokenTTL() time.Duration {
	if c.TokenTTLMinutes == 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// GetTimeout returns the timeout as a time.Duration
func (c *LLMConfig) GetTimeout() time.Duration {
	if c.Timeout == 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// GetMaxTokens returns the max tokens with a default
func (c *LLMConfig) GetMaxTokens() int {
	if c.MaxTokens == 0 {
		return 1024
	}
	return c.MaxTokens
}

// GetTurnTimeout returns the deadline for a single chat turn
func (c *ChatConfig) GetTurnTimeout() time.Duration {
	if c.TurnTimeout == 0 {
		return 120 * time.Second
	}
	return time.Duration(c.TurnTimeout) * time.Second
}

// GetTokenTTL returns how long a directory bearer token is reused
func (c *UserDirConfig) GetTokenTTL() time.Duration {
	if c.TokenTTL == 0 {
		return 25 * time.Minute
	}
	return time.Duration(c.TokenTTL) * time.Second
}

// GetTimeout returns the directory HTTP timeout
func (c *UserDirConfig) GetTimeout() time.Duration {
	if c.Timeout == 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// Masked returns a copy with secrets replaced, suitable for printing
func (c Config) Masked() Config {
	c.Auth.SecretKey = maskSecret(c.Auth.SecretKey)
	c.LLM.APIKey = maskSecret(c.LLM.APIKey)
	c.UserDir.Password = maskSecret(c.UserDir.Password)
	c.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	return c
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
