package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/templui/storyloom/internal/ctxkeys"
	"github.com/templui/storyloom/internal/repository"
	"github.com/templui/storyloom/internal/service"
	"github.com/templui/storyloom/internal/validation"
)

// maxJSONBody caps decoded request bodies.
const maxJSONBody = 1 << 20

// writeJSON writes a success envelope. Fields are merged into {"success": true}.
func writeJSON(w http.ResponseWriter, status int, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, fields ...map[string]any) {
	body := map[string]any{"success": false, "error": message}
	for _, extra := range fields {
		for k, v := range extra {
			body[k] = v
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// viewerID is the logged-in user's ID or "" for anonymous requests.
func viewerID(r *http.Request) string {
	if user := ctxkeys.User(r.Context()); user != nil {
		return user.ID
	}
	return ""
}

// writeServiceError maps service and repository errors onto status codes.
// Unknown errors are logged and reported generically.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var (
		fields   validation.FieldErrors
		capError *service.CapabilityError
	)

	switch {
	case errors.As(err, &fields):
		writeError(w, http.StatusBadRequest, fields.Error(), map[string]any{"fields": fields})
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrStoryNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrCommentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotStoryOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrCapabilityUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &capError):
		slog.Warn("capability call failed", "capability", capError.Capability, "error", capError.Message, "path", r.URL.Path)
		writeError(w, http.StatusBadGateway, capError.Error())
	default:
		slog.Error("request failed", "action", action, "error", err, "path", r.URL.Path, "user_id", viewerID(r))
		writeError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		service.ErrInvalidEmoji,
		service.ErrInvalidParent,
		service.ErrUsernameTaken,
		service.ErrEmailTaken,
		service.ErrBioTooLong,
		validation.ErrUsernameRequired,
		validation.ErrUsernameLength,
		validation.ErrUsernameChars,
		validation.ErrEmailRequired,
		validation.ErrEmailInvalid,
		validation.ErrPasswordShort,
		validation.ErrPasswordLong,
		validation.ErrPasswordCommon,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
