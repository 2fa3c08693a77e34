package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/user/mockshop/internal/api"
	"github.com/user/mockshop/internal/auth"
	"github.com/user/mockshop/internal/logging"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the shop API and support chat server",
	Long: `Start the HTTP server with the seeded in-memory shop.

Endpoints require a bearer token from POST /login, except /login and
/health. POST /chat?user_id=<id> runs one support chat turn.

The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default 127.0.0.1)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default 8000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	overrides := map[string]interface{}{}
	if serveHost != "" {
		overrides["server.host"] = serveHost
	}
	if servePort != 0 {
		overrides["server.port"] = servePort
	}

	cfg, err := loadConfig(overrides)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	logger, err := InitLogger(cfg.Logging, debugFlag, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := newSeededStore(cfg)
	if err != nil {
		return err
	}
	orchestrator, err := newOrchestrator(cfg, newDirectory(cfg, st, logger), logger)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Deps{
		Store:         st,
		Authenticator: auth.NewAuthenticator(st, auth.NewTokenIssuer(cfg.Auth.SecretKey, cfg.Auth.GetTokenTTL())),
		Chat:          orchestrator,
		Logger:        logger,
		TurnTimeout:   cfg.Chat.GetTurnTimeout(),
		CORSOrigins:   cfg.Server.CORSOrigins,
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening",
			logging.String("addr", httpServer.Addr),
			logging.String("llm_provider", cfg.LLM.Provider),
			logging.String("user_directory", cfg.Chat.UserDirectory.Mode),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GetShutdownTimeout())
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
