package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/user/mockshop/internal/auth"
	"github.com/user/mockshop/internal/chat"
	"github.com/user/mockshop/internal/config"
	"github.com/user/mockshop/internal/llm"
	"github.com/user/mockshop/internal/logging"
	"github.com/user/mockshop/internal/prompts"
	"github.com/user/mockshop/internal/store"
	"github.com/user/mockshop/internal/tools"
	"github.com/user/mockshop/internal/userdir"
)

// InitLogger creates the logger for a command from the logging section.
// Console output is on for serve and whenever verbose is set; debug lowers
// the console level and adds caller information.
func InitLogger(cfg config.LoggingConfig, debug, console bool) (*logging.Logger, error) {
	consoleLevel := logging.LevelFromString(cfg.Level)
	if debug {
		consoleLevel = logging.LevelFromString("debug")
	}

	logger, err := logging.NewLogger(&logging.Config{
		LogDir:         cfg.LogDir,
		FileLevel:      logging.LevelFromString(cfg.Level),
		ConsoleLevel:   consoleLevel,
		ConsoleFormat:  cfg.Format,
		EnableCaller:   debug,
		ConsoleEnabled: console,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// loadConfig loads the effective configuration with the given flag overrides
func loadConfig(overrides map[string]interface{}) (*config.Config, error) {
	return config.NewLoader().Load(projectDir, overrides)
}

// newSeededStore builds the in-memory shop with hashed seed passwords
func newSeededStore(cfg *config.Config) (*store.MemoryStore, error) {
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	st, err := store.NewSeededMemoryStore(hasher.Hash, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}
	return st, nil
}

// newDirectory picks the user directory for the configured mode
func newDirectory(cfg *config.Config, st store.Store, logger *logging.Logger) userdir.Directory {
	if cfg.Chat.UserDirectory.Mode == config.DirectoryModeLocal {
		return userdir.NewStoreDirectory(st)
	}
	client := &http.Client{Timeout: cfg.UserDir.GetTimeout()}
	return userdir.NewHTTPDirectory(cfg.UserDir, client, logger)
}

// newOrchestrator wires the LLM client, tools and prompts into a chat orchestrator
func newOrchestrator(cfg *config.Config, directory userdir.Directory, logger *logging.Logger) (*chat.Orchestrator, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	client, err := llm.NewFactory(nil).CreateClient(cfg.LLM)
	if err != nil {
		return nil, err
	}

	registry, err := tools.NewRegistry(tools.NewUserInfoTool(directory, logger))
	if err != nil {
		return nil, err
	}

	pm, err := prompts.NewManager(cfg.Chat.PromptsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	logger.Debug("Chat orchestrator configured",
		logging.String("provider", client.GetProvider()),
		logging.String("model", cfg.LLM.Model),
		logging.Strings("tools", registry.Names()),
		logging.Strings("prompt_overrides", pm.ListOverrides()),
	)

	return chat.NewOrchestrator(client, registry, pm, logger, chat.Options{
		UnknownToolPolicy: cfg.Chat.UnknownToolPolicy,
		MaxTokens:         cfg.LLM.GetMaxTokens(),
		Temperature:       cfg.LLM.Temperature,
	}), nil
}
