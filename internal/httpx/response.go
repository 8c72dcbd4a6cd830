package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"learnpath/internal/apperr"
	"learnpath/internal/logger"
)

type ErrorBody struct {
	Error   string                 `json:"error"`
	Code    apperr.Kind            `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes err as a structured body. Unexpected errors are logged and
// reported with a generic message.
func Error(w http.ResponseWriter, log *logger.Logger, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.KindInternal {
		log.Error("request failed", "error", err)
	}
	JSON(w, e.Status(), ErrorBody{Error: e.Message, Code: e.Kind, Details: e.Details})
}

// PathID reads a positive numeric route variable.
func PathID(r *http.Request, name string) (uint, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.InvalidRequest("invalid %s", name)
	}
	return uint(id), nil
}
