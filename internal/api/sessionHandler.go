package api

import (
	"encoding/json"
	"errors"
	"github.com/rs/zerolog"
	"net/http"
	"old-maid-server/internal/apperr"
	"old-maid-server/internal/auth"
	"old-maid-server/internal/core"
	"strings"
)

// SessionHandler returns what the bearer of a session may see: the public
// state of their game, or of their waiting room before the game starts.
func SessionHandler(service *core.Service, issuer *auth.Issuer, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, apperr.Forbidden())
			return
		}
		claims, err := issuer.CheckToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		game, players, err := service.GetGame(r.Context(), claims.GameID)
		switch {
		case err == nil:
			public := make([]PlayerDto, 0, len(players))
			for _, p := range players {
				public = append(public, toPlayerDto(p))
			}
			okResponse(w, map[string]any{"game": toGameDto(game), "players": public})
			return
		case !errors.Is(err, apperr.ErrNotFound):
			logger.Error().Err(err).Msg("load game for session")
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		room, err := service.GetWaitingRoom(r.Context(), claims.GameID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				writeError(w, http.StatusNotFound, err)
				return
			}
			logger.Error().Err(err).Msg("load waiting room for session")
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		okResponse(w, map[string]any{"waitingRoom": toWaitingRoomDto(room)})
	}
}

func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	okResponse(w, map[string]string{"status": "ok"})
}

func okResponse(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(toErrorDto(err))
}
