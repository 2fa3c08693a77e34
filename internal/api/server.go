// Package api serves the shop REST endpoints and the support chat over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/user/mockshop/internal/auth"
	apperrors "github.com/user/mockshop/internal/errors"
	"github.com/user/mockshop/internal/llm"
	"github.com/user/mockshop/internal/logging"
	"github.com/user/mockshop/internal/store"
)

// TurnRunner runs one support chat turn
type TurnRunner interface {
	RunTurn(ctx context.Context, userID int, history []llm.Message) ([]llm.Message, error)
}

// Deps are the collaborators of the server
type Deps struct {
	Store         store.Store
	Authenticator *auth.Authenticator
	Chat          TurnRunner
	Logger        *logging.Logger

	TurnTimeout time.Duration
	CORSOrigins []string
}

// Server routes HTTP requests to the shop handlers
type Server struct {
	store       store.Store
	auth        *auth.Authenticator
	chat        TurnRunner
	logger      *logging.Logger
	turnTimeout time.Duration
	corsOrigins []string

	handler http.Handler
}

// NewServer creates a server and builds its route table
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		store:       deps.Store,
		auth:        deps.Authenticator,
		chat:        deps.Chat,
		logger:      logger.Named("api"),
		turnTimeout: deps.TurnTimeout,
		corsOrigins: origins,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler with the middleware chain applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.Handle("GET /products", s.requireUser(s.handleListProducts))
	mux.Handle("GET /products/{product_id}", s.requireUser(s.handleGetProduct))
	mux.Handle("POST /products", s.requireUser(s.handleCreateProduct))
	mux.Handle("DELETE /products/{product_id}", s.requireUser(s.handleDeleteProduct))

	mux.Handle("GET /orders", s.requireUser(s.handleListOrders))
	mux.Handle("GET /user_orders", s.requireUser(s.handleUserOrders))
	mux.Handle("GET /orders/{order_id}", s.requireUser(s.handleGetOrder))
	mux.Handle("POST /orders", s.requireUser(s.handleCreateOrder))
	mux.Handle("POST /create_order", s.requireUser(s.handleCreateOrderFor))
	mux.Handle("POST /orders/{order_id}/cancel", s.requireUser(s.handleCancelOrder))

	mux.Handle("GET /users/{user_id}", s.requireUser(s.handleGetUser))

	mux.Handle("POST /chat", s.requireUser(s.handleChat))

	return Chain(
		RecoveryMiddleware(s.logger),
		RequestIDMiddleware(),
		LoggingMiddleware(s.logger),
		CORSMiddleware(s.corsOrigins),
	)(mux)
}

type userHandlerFunc func(w http.ResponseWriter, r *http.Request, user store.User)

// requireUser resolves the bearer token before calling next
func (s *Server) requireUser(next userHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			s.writeError(w, r, apperrors.NewUnauthorizedError("Not authenticated", nil))
			return
		}

		user, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next(w, r.WithContext(ctx), user)
	})
}

// UserFromContext returns the authenticated user of a request
func UserFromContext(ctx context.Context) (store.User, bool) {
	user, ok := ctx.Value(userKey).(store.User)
	return user, ok
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathInt parses an integer path parameter
func pathInt(r *http.Request, name string) (int, error) {
	return parseInt(name, r.PathValue(name))
}

// queryInt parses a required integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, apperrors.NewValidationError(name, "field required")
	}
	return parseInt(name, raw)
}

func parseInt(name, raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(name, "value is not a valid integer")
	}
	return v, nil
}

// notFoundAs replaces store.ErrNotFound with a 404 naming resource
func notFoundAs(err error, resource string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NewNotFoundError(resource)
	}
	return err
}
