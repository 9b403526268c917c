package core

import (
	"context"
	database "old-maid-server/internal/db"
	"old-maid-server/internal/entities"
)

// ProceedAction pulls the card at index from the player being targeted this
// turn into playerID's hand.
func (s *Service) ProceedAction(ctx context.Context, gameID entities.GameID, playerID entities.PlayerID, index int, token entities.LongSecret) (*entities.Player, *entities.Player, error) {
	var me, next *entities.Player
	err := s.store.Update(ctx, func(tx database.Tx) error {
		game, err := findGame(tx, gameID)
		if err != nil {
			return err
		}
		player, err := findGamePlayer(tx, game, playerID)
		if err != nil {
			return err
		}
		target, err := findGamePlayer(tx, game, game.PlayerIDProceeded())
		if err != nil {
			return err
		}
		pctx, err := entities.NewPlayerContext(player, token)
		if err != nil {
			return err
		}

		me, next, err = player.ToActionProceeded(game, target, index, pctx)
		if err != nil {
			return err
		}
		if err := tx.Players().Save(me); err != nil {
			return err
		}
		return tx.Players().Save(next)
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Debug().Str("game", string(gameID)).Str("player", string(me.ID())).Str("from", string(next.ID())).Msg("card pulled")
	return me, next, nil
}

// DiscardPairs discards every pair in playerID's hand onto the game's table.
func (s *Service) DiscardPairs(ctx context.Context, gameID entities.GameID, playerID entities.PlayerID, token entities.LongSecret) (*entities.Game, *entities.Player, []entities.Card, error) {
	var (
		game      *entities.Game
		player    *entities.Player
		discarded []entities.Card
	)
	err := s.store.Update(ctx, func(tx database.Tx) error {
		found, err := findGame(tx, gameID)
		if err != nil {
			return err
		}
		current, err := findGamePlayer(tx, found, playerID)
		if err != nil {
			return err
		}
		pctx, err := entities.NewPlayerContext(current, token)
		if err != nil {
			return err
		}
		gctx, err := entities.NewGamePlayerContext(found, token)
		if err != nil {
			return err
		}

		player, discarded, err = current.ToPairsDiscarded(pctx)
		if err != nil {
			return err
		}
		table, err := found.Table().ToCardsPut(discarded, gctx)
		if err != nil {
			return err
		}
		game, err = found.ToTableSet(table, gctx)
		if err != nil {
			return err
		}
		if err := tx.Players().Save(player); err != nil {
			return err
		}
		return tx.Games().Save(game)
	})
	if err != nil {
		return nil, nil, nil, err
	}

	s.log.Debug().Str("game", string(gameID)).Str("player", string(playerID)).Int("discarded", len(discarded)).Msg("pairs discarded")
	return game, player, discarded, nil
}

func (s *Service) GetPlayer(ctx context.Context, playerID entities.PlayerID) (*entities.Player, error) {
	var player *entities.Player
	err := s.store.View(ctx, func(tx database.Tx) error {
		var err error
		player, err = findPlayer(tx, playerID)
		return err
	})
	return player, err
}
