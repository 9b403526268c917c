package core

import (
	"github.com/rs/zerolog"
	"old-maid-server/internal/apperr"
	database "old-maid-server/internal/db"
	"old-maid-server/internal/entities"
)

// Service runs every use case of the game. Each call loads what it needs,
// applies one transition and saves the result inside a single store update.
type Service struct {
	store database.Store
	rnd   entities.Random
	log   zerolog.Logger
}

func NewService(store database.Store, rnd entities.Random, logger zerolog.Logger) *Service {
	return &Service{
		store: store,
		rnd:   rnd,
		log:   logger.With().Str("component", "core").Logger(),
	}
}

func findRoom(tx database.Tx, id entities.GameID) (*entities.WaitingRoom, error) {
	room, err := tx.WaitingRooms().FindByID(id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "waiting room %s not found", id)
	}
	return room, nil
}

func findGame(tx database.Tx, id entities.GameID) (*entities.Game, error) {
	game, err := tx.Games().FindByID(id)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "game %s not found", id)
	}
	return game, nil
}

func findPlayer(tx database.Tx, id entities.PlayerID) (*entities.Player, error) {
	player, err := tx.Players().FindByID(id)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "player %s not found", id)
	}
	return player, nil
}

// findGamePlayer loads the current state of a member of game.
func findGamePlayer(tx database.Tx, game *entities.Game, id entities.PlayerID) (*entities.Player, error) {
	if _, ok := game.Player(id); !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "player %s is not in game %s", id, game.ID())
	}
	return findPlayer(tx, id)
}

func findTelepresence(tx database.Tx, id entities.PlayerID) (*entities.HandTelepresence, error) {
	telepresence, err := tx.HandTelepresences().FindByID(id)
	if err != nil {
		return nil, err
	}
	if telepresence == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "hand telepresence %s not found", id)
	}
	return telepresence, nil
}
