package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"impostorparty/internal/game"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeGameError maps the game error taxonomy onto HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, game.ErrInvalidState), errors.Is(err, game.ErrInvalidVote):
		status = http.StatusConflict
	case errors.Is(err, game.ErrCapacity):
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, err.Error())
}
