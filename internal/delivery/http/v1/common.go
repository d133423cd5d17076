package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"freshmart-backend/internal/domain"
	"freshmart-backend/internal/usecase"
	"freshmart-backend/pkg/utils"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// currentUser pulls the authenticated user set by the auth middleware.
func currentUser(r *http.Request) (*domain.User, bool) {
	user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
	return user, ok && user != nil
}

func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// errStatus maps usecase errors onto HTTP status codes. Usecases speak in
// error strings, so the mapping is by message shape.
func errStatus(err error) int {
	if errors.Is(err, usecase.ErrInvalidTransition) {
		return http.StatusConflict
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "required"),
		strings.Contains(msg, "invalid"),
		strings.Contains(msg, "unsupported"),
		strings.Contains(msg, "must be"),
		strings.Contains(msg, "empty"),
		strings.Contains(msg, "insufficient stock"),
		strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "cannot be applied"),
		strings.Contains(msg, "exceeds"),
		strings.Contains(msg, "unknown"):
		return http.StatusBadRequest
	case strings.Contains(msg, "not payable"),
		strings.Contains(msg, "already paid"),
		strings.Contains(msg, "is closed"):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeUsecaseError(w http.ResponseWriter, err error) {
	utils.WriteError(w, errStatus(err), err.Error())
}

// pathUUID reads a path parameter and rejects malformed identifiers before
// any repository call is made.
func pathUUID(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	id := r.PathValue(key)
	if err := uuid.Validate(id); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid identifier")
		return "", false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// paginated is the standard list envelope.
type paginated struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}
