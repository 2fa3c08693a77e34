package api

import (
	"net/http"

	"github.com/user/mockshop/internal/auth"
	apperrors "github.com/user/mockshop/internal/errors"
	"github.com/user/mockshop/internal/logging"
	"github.com/user/mockshop/internal/store"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResponse struct {
	ID       int        `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Role     store.Role `json:"role"`
}

// handleLogin exchanges form credentials for an access token
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, apperrors.NewValidationError("form", err.Error()))
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		s.writeError(w, r, apperrors.NewValidationError("form", "username and password are required"))
		return
	}

	token, err := s.auth.Login(r.Context(), username, password)
	if err != nil {
		s.logger.Info("Login rejected", logging.String("username", username))
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: auth.TokenType})
}

// handleGetUser returns the public profile of a user to that user or an admin
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request, current store.User) {
	userID, err := pathInt(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if userID != current.ID && !current.IsAdmin() {
		s.writeError(w, r, apperrors.NewForbiddenError("Not authorized to access this user"))
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, notFoundAs(err, "User"))
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
}
