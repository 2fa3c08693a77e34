package api

import (
	"context"
	"net/http"

	apperrors "github.com/user/mockshop/internal/errors"
	"github.com/user/mockshop/internal/llm"
	"github.com/user/mockshop/internal/store"
)

// handleChat runs one support turn for ?user_id= on the posted history and
// returns the extended history. Non-admins may only chat as themselves.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, current store.User) {
	userID, err := queryInt(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if userID != current.ID && !current.IsAdmin() {
		s.writeError(w, r, apperrors.NewForbiddenError("Not authorized to chat as this user"))
		return
	}

	var history []llm.Message
	if err := decodeJSON(w, r, &history); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if s.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.turnTimeout)
		defer cancel()
	}

	updated, err := s.chat.RunTurn(ctx, userID, history)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
