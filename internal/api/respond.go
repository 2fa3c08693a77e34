package api

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/user/mockshop/internal/errors"
	"github.com/user/mockshop/internal/logging"
	"github.com/user/mockshop/internal/store"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeError maps err to a status code and a {"detail": ...} body.
// Unclassified errors become a 500 without leaking their text.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		status := appErr.Status()
		if status == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		if status >= http.StatusInternalServerError {
			s.logger.Error("Request error",
				logging.String("path", r.URL.Path),
				logging.String("request_id", RequestIDFromContext(r.Context())),
				logging.Error(err),
			)
		}
		writeDetail(w, status, appErr.Message)
		return
	}

	if errors.Is(err, store.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Not found")
		return
	}

	s.logger.Error("Unhandled request error",
		logging.String("path", r.URL.Path),
		logging.String("request_id", RequestIDFromContext(r.Context())),
		logging.Error(err),
	)
	writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
}

// maxBodyBytes caps JSON request bodies
const maxBodyBytes int64 = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.NewPayloadTooLargeError(tooLarge.Limit)
		}
		return apperrors.NewValidationError("body", err.Error())
	}
	return nil
}
