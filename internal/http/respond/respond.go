package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ad2m/missions/internal/mission"
)

var statusByKind = map[mission.ErrorKind]int{
	mission.KindUnauthenticated: http.StatusUnauthorized,
	mission.KindForbidden:       http.StatusForbidden,
	mission.KindNotFound:        http.StatusNotFound,
	mission.KindInvalidState:    http.StatusConflict,
	mission.KindValidation:      http.StatusBadRequest,
	mission.KindPrecondition:    http.StatusUnprocessableEntity,
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    mission.ErrorKind `json:"kind"`
	Message string            `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes err with the status of its kind. Errors without a kind are
// logged and answered with a generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := mission.KindOf(err)

	status, ok := statusByKind[kind]
	if !ok {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		JSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{Kind: mission.KindInternal, Message: "internal error"}})

		return
	}

	JSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: err.Error()}})
}

// BadRequest answers 400 for malformed input that never reached the service.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, &mission.Error{Kind: mission.KindValidation, Message: message})
}
