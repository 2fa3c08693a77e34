package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/user/mockshop/internal/errors"
)

const envPrefix = "MOCKSHOP"

// Loader handles loading configuration from multiple sources
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	return &Loader{v: v}
}

// Load builds the effective configuration.
// Precedence: CLI > .mockshop/config.yaml > ~/.mockshop.yaml > Environment > Defaults
func (l *Loader) Load(projectDir string, cliOverrides map[string]interface{}) (*Config, error) {
	if err := l.loadGlobalConfig(); err != nil {
		return nil, err
	}

	if err := l.loadProjectConfig(projectDir); err != nil {
		return nil, err
	}

	l.applyCLIOverrides(cliOverrides)

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
		TagName:          "mapstructure",
		Squash:           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}

	if err := decoder.Decode(l.v.AllSettings()); err != nil {
		return nil, errors.WrapError(err, "Failed to decode configuration", errors.ExitConfigError)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	return cfg, nil
}

// loadGlobalConfig loads configuration from ~/.mockshop.yaml
func (l *Loader) loadGlobalConfig() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil // Not a fatal error
	}

	globalConfig := filepath.Join(homeDir, ".mockshop.yaml")
	if _, err := os.Stat(globalConfig); err != nil {
		return nil // File doesn't exist, skip
	}

	l.v.SetConfigFile(globalConfig)
	if err := l.v.ReadInConfig(); err != nil {
		return errors.NewConfigFileError(globalConfig, err)
	}

	return nil
}

// loadProjectConfig loads configuration from .mockshop/config.yaml
func (l *Loader) loadProjectConfig(projectDir string) error {
	if projectDir == "" {
		projectDir = "."
	}

	configPath := filepath.Join(projectDir, ".mockshop", "config.yaml")
	if _, err := os.Stat(configPath); err != nil {
		return nil // File doesn't exist, skip
	}

	l.v.SetConfigFile(configPath)
	if err := l.v.MergeInConfig(); err != nil {
		return errors.NewConfigFileError(configPath, err)
	}

	return nil
}

// applyCLIOverrides applies CLI flag overrides keyed by dotted path, e.g. "server.port"
func (l *Loader) applyCLIOverrides(overrides map[string]interface{}) {
	for key, value := range overrides {
		if value != nil {
			l.v.Set(key, value)
		}
	}
}

// applyEnvOverrides fills settings left unset by files and flags from MOCKSHOP_* variables
func applyEnvOverrides(cfg *Config) error {
	setStringFromEnv(&cfg.Server.Host, envKey("SERVER_HOST"))
	if err := setIntFromEnv(&cfg.Server.Port, envKey("SERVER_PORT")); err != nil {
		return err
	}
	if err := setIntFromEnv(&cfg.Server.ShutdownTimeout, envKey("SERVER_SHUTDOWN_TIMEOUT")); err != nil {
		return err
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		if env := os.Getenv(envKey("SERVER_CORS_ORIGINS")); env != "" {
			cfg.Server.CORSOrigins = splitList(env)
		}
	}

	setStringFromEnv(&cfg.Auth.SecretKey, envKey("AUTH_SECRET_KEY"), "SECRET_KEY")
	if err := setIntFromEnv(&cfg.Auth.TokenTTLMinutes, envKey("AUTH_TOKEN_TTL_MINUTES")); err != nil {
		return err
	}
	if err := setIntFromEnv(&cfg.Auth.BcryptCost, envKey("AUTH_BCRYPT_COST")); err != nil {
		return err
	}

	setStringFromEnv(&cfg.LLM.Provider, envKey("LLM_PROVIDER"))
	setStringFromEnv(&cfg.LLM.Model, envKey("LLM_MODEL"))
	setStringFromEnv(&cfg.LLM.APIKey, envKey("LLM_API_KEY"), "API_KEY")
	setStringFromEnv(&cfg.LLM.BaseURL, envKey("LLM_BASE_URL"), "PROXY_URL")
	if err := setIntFromEnv(&cfg.LLM.Timeout, envKey("LLM_TIMEOUT")); err != nil {
		return err
	}
	if err := setIntFromEnv(&cfg.LLM.MaxTokens, envKey("LLM_MAX_TOKENS")); err != nil {
		return err
	}
	if err := setFloatFromEnv(&cfg.LLM.Temperature, envKey("LLM_TEMPERATURE")); err != nil {
		return err
	}

	if err := setIntFromEnv(&cfg.Chat.TurnTimeout, envKey("CHAT_TURN_TIMEOUT")); err != nil {
		return err
	}
	setStringFromEnv(&cfg.Chat.UnknownToolPolicy, envKey("CHAT_UNKNOWN_TOOL_POLICY"))
	setStringFromEnv(&cfg.Chat.PromptsDir, envKey("CHAT_PROMPTS_DIR"))
	setStringFromEnv(&cfg.Chat.UserDirectory.Mode, envKey("CHAT_USER_DIRECTORY_MODE"))

	setStringFromEnv(&cfg.UserDir.BaseURL, envKey("USERDIR_BASE_URL"))
	setStringFromEnv(&cfg.UserDir.Username, envKey("USERDIR_USERNAME"))
	setStringFromEnv(&cfg.UserDir.Password, envKey("USERDIR_PASSWORD"))
	if err := setIntFromEnv(&cfg.UserDir.TokenTTL, envKey("USERDIR_TOKEN_TTL")); err != nil {
		return err
	}
	if err := setIntFromEnv(&cfg.UserDir.Timeout, envKey("USERDIR_TIMEOUT")); err != nil {
		return err
	}

	setStringFromEnv(&cfg.Logging.LogDir, envKey("LOGGING_LOG_DIR"))
	setStringFromEnv(&cfg.Logging.Level, envKey("LOGGING_LEVEL"))
	setStringFromEnv(&cfg.Logging.Format, envKey("LOGGING_FORMAT"))

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Auth.TokenTTLMinutes == 0 {
		cfg.Auth.TokenTTLMinutes = 30
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 10
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel(cfg.LLM.Provider)
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.Chat.TurnTimeout == 0 {
		cfg.Chat.TurnTimeout = 120
	}
	if cfg.Chat.UnknownToolPolicy == "" {
		cfg.Chat.UnknownToolPolicy = UnknownToolSynthesize
	}
	if cfg.Chat.UserDirectory.Mode == "" {
		cfg.Chat.UserDirectory.Mode = DirectoryModeHTTP
	}
	if cfg.UserDir.BaseURL == "" {
		host := cfg.Server.Host
		if host == "" || host == "0.0.0.0" {
			host = "127.0.0.1"
		}
		cfg.UserDir.BaseURL = fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-3-5-haiku-latest"
	case "ollama":
		return "llama3.1"
	default:
		return "gpt-4o-mini"
	}
}

// ValidateLLM checks the settings needed to build a language model client
func (c *Config) ValidateLLM() error {
	validProviders := map[string]bool{
		"openai":    true,
		"anthropic": true,
		"ollama":    true,
	}

	if !validProviders[c.LLM.Provider] {
		return errors.NewInvalidEnvVarError(envKey("LLM_PROVIDER"), c.LLM.Provider, "Must be one of: openai, anthropic, ollama")
	}

	if c.LLM.APIKey == "" && c.LLM.Provider != "ollama" {
		return errors.NewMissingEnvVarError(envKey("LLM_API_KEY"), "API key for LLM provider")
	}

	if c.LLM.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.LLM.BaseURL); err != nil {
			return errors.NewInvalidEnvVarError(envKey("LLM_BASE_URL"), c.LLM.BaseURL, "Must be an absolute URL")
		}
	}

	switch c.Chat.UnknownToolPolicy {
	case UnknownToolSynthesize, UnknownToolFail:
	default:
		return errors.NewInvalidEnvVarError(envKey("CHAT_UNKNOWN_TOOL_POLICY"), c.Chat.UnknownToolPolicy, "Must be one of: synthesize, fail")
	}

	return nil
}

// ValidateDirectory checks the user directory settings for the configured mode
func (c *Config) ValidateDirectory() error {
	switch c.Chat.UserDirectory.Mode {
	case DirectoryModeLocal:
		return nil
	case DirectoryModeHTTP:
	default:
		return errors.NewInvalidEnvVarError(envKey("CHAT_USER_DIRECTORY_MODE"), c.Chat.UserDirectory.Mode, "Must be one of: http, local")
	}

	if _, err := url.ParseRequestURI(c.UserDir.BaseURL); err != nil {
		return errors.NewInvalidEnvVarError(envKey("USERDIR_BASE_URL"), c.UserDir.BaseURL, "Must be an absolute URL")
	}
	if c.UserDir.Username == "" {
		return errors.NewMissingEnvVarError(envKey("USERDIR_USERNAME"), "Service account used by get_user_info")
	}
	if c.UserDir.Password == "" {
		return errors.NewMissingEnvVarError(envKey("USERDIR_PASSWORD"), "Service account password used by get_user_info")
	}
	return nil
}

// ValidateServer checks everything `serve` needs
func (c *Config) ValidateServer() error {
	if c.Auth.SecretKey == "" {
		return errors.NewMissingEnvVarError(envKey("AUTH_SECRET_KEY"), "Signing key for access tokens")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.NewInvalidEnvVarError(envKey("SERVER_PORT"), strconv.Itoa(c.Server.Port), "Must be between 1 and 65535")
	}
	if err := c.ValidateLLM(); err != nil {
		return err
	}
	return c.ValidateDirectory()
}

func envKey(name string) string {
	return envPrefix + "_" + name
}

func setStringFromEnv(dst *string, keys ...string) {
	if *dst != "" {
		return
	}
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			*dst = val
			return
		}
	}
}

func setIntFromEnv(dst *int, key string) error {
	if *dst != 0 {
		return nil
	}
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return errors.NewInvalidEnvVarError(key, val, "Must be an integer")
	}
	*dst = i
	return nil
}

func setFloatFromEnv(dst *float64, key string) error {
	if *dst != 0 {
		return nil
	}
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return errors.NewInvalidEnvVarError(key, val, "Must be a number")
	}
	*dst = f
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
