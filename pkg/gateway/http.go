package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/PvPrs/matching-engine/pkg/engine"
)

type badPayloadError struct{ msg string }

func (e badPayloadError) Error() string { return e.msg }

func errBadPayload(msg string) error { return badPayloadError{msg: msg} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, err error) {
	var bad badPayloadError
	switch {
	case errors.As(err, &bad):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": bad.msg})
	case errors.Is(err, engine.ErrLoopClosed):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "engine unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
