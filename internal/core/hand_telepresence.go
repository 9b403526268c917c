package core

import (
	"context"
	"old-maid-server/internal/apperr"
	database "old-maid-server/internal/db"
	"old-maid-server/internal/entities"
)

// CardPlacement is where the owner's client laid out one card.
type CardPlacement struct {
	Card entities.Card
	X    float64
	Y    float64
}

// CreateHandTelepresence shares the layout of playerID's hand. The placements
// must cover exactly the cards the player holds. It also returns the previous
// neighbour, who is the one entitled to the telepresence token.
func (s *Service) CreateHandTelepresence(ctx context.Context, playerID entities.PlayerID, token entities.LongSecret, placements []CardPlacement) (*entities.HandTelepresence, entities.PlayerID, error) {
	var (
		telepresence *entities.HandTelepresence
		prev         entities.PlayerID
	)
	err := s.store.Update(ctx, func(tx database.Tx) error {
		player, err := findPlayer(tx, playerID)
		if err != nil {
			return err
		}
		if _, err := entities.NewPlayerContext(player, token); err != nil {
			return err
		}

		cards := make([]entities.Card, len(placements))
		states := make([]entities.CardState, len(placements))
		for i, p := range placements {
			state, err := entities.NewCardState(p.Card, p.X, p.Y)
			if err != nil {
				return err
			}
			cards[i] = p.Card
			states[i] = state
		}
		if !entities.SameCards(cards, player.CardsInHand()) {
			return apperr.New(apperr.KindIllegalParam, "cards do not match the player's hand")
		}

		telepresence, err = entities.CreateHandTelepresence(player.ID(), states, s.rnd)
		if err != nil {
			return err
		}
		prev = player.PlayerIDOnPrev()
		return tx.HandTelepresences().Save(telepresence)
	})
	if err != nil {
		return nil, "", err
	}

	s.log.Debug().Str("player", string(playerID)).Int("cards", len(placements)).Msg("hand telepresence created")
	return telepresence, prev, nil
}

type telepresenceTransition func(*entities.HandTelepresence, entities.HandTelepresenceContext) (*entities.HandTelepresence, error)

func (s *Service) updateTelepresence(ctx context.Context, id entities.PlayerID, token entities.LongSecret, transition telepresenceTransition) (*entities.HandTelepresence, error) {
	var telepresence *entities.HandTelepresence
	err := s.store.Update(ctx, func(tx database.Tx) error {
		found, err := findTelepresence(tx, id)
		if err != nil {
			return err
		}
		hctx, err := entities.NewHandTelepresenceContext(found, token)
		if err != nil {
			return err
		}

		telepresence, err = transition(found, hctx)
		if err != nil {
			return err
		}
		return tx.HandTelepresences().Save(telepresence)
	})
	if err != nil {
		return nil, err
	}
	return telepresence, nil
}

func (s *Service) HoldCard(ctx context.Context, id entities.PlayerID, indexes []int, token entities.LongSecret) (*entities.HandTelepresence, error) {
	return s.updateTelepresence(ctx, id, token, func(h *entities.HandTelepresence, hctx entities.HandTelepresenceContext) (*entities.HandTelepresence, error) {
		return h.ToHolding(indexes, hctx)
	})
}

func (s *Service) LookCard(ctx context.Context, id entities.PlayerID, index int, token entities.LongSecret) (*entities.HandTelepresence, error) {
	return s.updateTelepresence(ctx, id, token, func(h *entities.HandTelepresence, hctx entities.HandTelepresenceContext) (*entities.HandTelepresence, error) {
		return h.ToLooking(index, hctx)
	})
}

func (s *Service) ScrubCard(ctx context.Context, id entities.PlayerID, index int, token entities.LongSecret) (*entities.HandTelepresence, error) {
	return s.updateTelepresence(ctx, id, token, func(h *entities.HandTelepresence, hctx entities.HandTelepresenceContext) (*entities.HandTelepresence, error) {
		return h.ToScrubbing(index, hctx)
	})
}

func (s *Service) PickCard(ctx context.Context, id entities.PlayerID, index int, amount float64, token entities.LongSecret) (*entities.HandTelepresence, error) {
	return s.updateTelepresence(ctx, id, token, func(h *entities.HandTelepresence, hctx entities.HandTelepresenceContext) (*entities.HandTelepresence, error) {
		return h.ToPicking(index, amount, hctx)
	})
}
