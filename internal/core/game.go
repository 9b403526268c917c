package core

import (
	"context"
	database "old-maid-server/internal/db"
	"old-maid-server/internal/entities"
)

// CreateGame deals the owner's waiting room into a game. The room is consumed.
func (s *Service) CreateGame(ctx context.Context, roomID entities.GameID, ownerToken entities.LongSecret) (*entities.Game, error) {
	var game *entities.Game
	err := s.store.Update(ctx, func(tx database.Tx) error {
		room, err := findRoom(tx, roomID)
		if err != nil {
			return err
		}
		if _, err := entities.NewWaitingRoomOwnerContext(room, ownerToken); err != nil {
			return err
		}

		game, err = entities.CreateGame(room, s.rnd)
		if err != nil {
			return err
		}
		if err := tx.Games().Save(game); err != nil {
			return err
		}
		for _, p := range game.Players() {
			if err := tx.Players().Save(p); err != nil {
				return err
			}
		}
		return tx.WaitingRooms().Delete(roomID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("game", string(game.ID())).Int("players", len(game.Players())).Msg("game created")
	return game, nil
}

func (s *Service) ChangeTurn(ctx context.Context, gameID entities.GameID, playerID entities.PlayerID, token entities.LongSecret) (*entities.Game, error) {
	var game *entities.Game
	err := s.store.Update(ctx, func(tx database.Tx) error {
		found, err := findGame(tx, gameID)
		if err != nil {
			return err
		}
		player, err := findGamePlayer(tx, found, playerID)
		if err != nil {
			return err
		}
		pctx, err := entities.NewPlayerContext(player, token)
		if err != nil {
			return err
		}

		game, err = found.ToTurnChanged(pctx)
		if err != nil {
			return err
		}
		return tx.Games().Save(game)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("game", string(game.ID())).
		Str("proceeding", string(game.PlayerIDProceeding())).
		Str("proceeded", string(game.PlayerIDProceeded())).
		Msg("turn changed")
	return game, nil
}

// Win records playerID as a winner. Once everyone has won the game, its
// players and their telepresences are deleted.
func (s *Service) Win(ctx context.Context, gameID entities.GameID, playerID entities.PlayerID, token entities.LongSecret) (*entities.Game, error) {
	var game *entities.Game
	err := s.store.Update(ctx, func(tx database.Tx) error {
		found, err := findGame(tx, gameID)
		if err != nil {
			return err
		}
		player, err := findGamePlayer(tx, found, playerID)
		if err != nil {
			return err
		}
		gctx, err := entities.NewGamePlayerContext(found, token)
		if err != nil {
			return err
		}

		game, err = found.ToWinnerAdded(player, gctx)
		if err != nil {
			return err
		}
		if !game.IsFinished() {
			return tx.Games().Save(game)
		}
		return releaseGame(tx, game)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("game", string(game.ID())).Str("player", string(playerID)).Bool("finished", game.IsFinished()).Msg("winner added")
	return game, nil
}

func releaseGame(tx database.Tx, game *entities.Game) error {
	for _, p := range game.Players() {
		if err := tx.Players().Delete(p.ID()); err != nil {
			return err
		}
		if err := tx.HandTelepresences().Delete(p.ID()); err != nil {
			return err
		}
	}
	return tx.Games().Delete(game.ID())
}

// GetGame returns the game with the current state of each of its players.
func (s *Service) GetGame(ctx context.Context, gameID entities.GameID) (*entities.Game, []*entities.Player, error) {
	var (
		game    *entities.Game
		players []*entities.Player
	)
	err := s.store.View(ctx, func(tx database.Tx) error {
		var err error
		game, err = findGame(tx, gameID)
		if err != nil {
			return err
		}
		for _, p := range game.Players() {
			current, err := findPlayer(tx, p.ID())
			if err != nil {
				return err
			}
			players = append(players, current)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return game, players, nil
}
