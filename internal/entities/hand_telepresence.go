package entities

import (
	"cmp"
	"old-maid-server/internal/apperr"
	"slices"
)

const (
	ScrubStep     = 0.02
	HeldScrubStep = 0.01
)

// HandTelepresence mirrors one player's hand while their previous neighbour
// looks for a card to pull. Its token is separate from the player's so the
// neighbour can be granted it.
type HandTelepresence struct {
	id                  PlayerID
	authenticationToken LongSecret
	cards               []CardState
	lookingAt           int
}

// CreateHandTelepresence lays cards out left to right by x. An empty hand has
// nothing to look at and is rejected.
func CreateHandTelepresence(id PlayerID, cards []CardState, rnd Random) (*HandTelepresence, error) {
	if len(cards) == 0 {
		return nil, apperr.New(apperr.KindIllegalParam, "a hand telepresence needs at least one card")
	}
	sorted := slices.Clone(cards)
	slices.SortStableFunc(sorted, func(a, b CardState) int {
		return cmp.Compare(a.x, b.x)
	})
	return &HandTelepresence{
		id:                  id,
		authenticationToken: rnd.NewLongSecret(),
		cards:               sorted,
	}, nil
}

func (h *HandTelepresence) ID() PlayerID {
	return h.id
}

func (h *HandTelepresence) Cards() []CardState {
	return slices.Clone(h.cards)
}

func (h *HandTelepresence) LookingAt() int {
	return h.lookingAt
}

// DangerouslyAuthenticationToken is only sent to the owner and the neighbour
// pulling from them.
func (h *HandTelepresence) DangerouslyAuthenticationToken() LongSecret {
	return h.authenticationToken
}

// updateCard applies fn to the card at index. An index out of range or a
// failed update leaves the card as it was.
func (h *HandTelepresence) updateCard(index int, fn func(CardState) (CardState, error)) *HandTelepresence {
	cards := slices.Clone(h.cards)
	if index >= 0 && index < len(cards) {
		if updated, err := fn(cards[index]); err == nil {
			cards[index] = updated
		}
	}
	next := *h
	next.cards = cards
	return &next
}

func (h *HandTelepresence) ToScrubbing(index int, ctx HandTelepresenceContext) (*HandTelepresence, error) {
	if !ctx.boundTo(h.id) {
		return nil, illegalContext()
	}
	return h.updateCard(index, func(s CardState) (CardState, error) {
		step := ScrubStep
		if s.isHolded {
			step = HeldScrubStep
		}
		return s.ToPositionSet(s.x+step, s.y)
	}), nil
}

func (h *HandTelepresence) ToLooking(index int, ctx HandTelepresenceContext) (*HandTelepresence, error) {
	if !ctx.boundTo(h.id) {
		return nil, illegalContext()
	}
	if index < 0 || index >= len(h.cards) {
		return nil, apperr.Newf(apperr.KindIllegalParam, "card index %d is out of range", index)
	}
	next := *h
	next.cards = slices.Clone(h.cards)
	next.lookingAt = index
	return &next, nil
}

// ToHolding holds exactly the cards at indexes and releases every other card.
func (h *HandTelepresence) ToHolding(indexes []int, ctx HandTelepresenceContext) (*HandTelepresence, error) {
	if !ctx.boundTo(h.id) {
		return nil, illegalContext()
	}
	cards := make([]CardState, len(h.cards))
	for i, s := range h.cards {
		if slices.Contains(indexes, i) {
			cards[i] = s.ToHolded()
		} else {
			cards[i] = s.ToUnholded()
		}
	}
	next := *h
	next.cards = cards
	return &next, nil
}

// ToPicking moves the lift of the card at index toward amount, half as fast
// while the card is held.
func (h *HandTelepresence) ToPicking(index int, amount float64, ctx HandTelepresenceContext) (*HandTelepresence, error) {
	if !ctx.boundTo(h.id) {
		return nil, illegalContext()
	}
	return h.updateCard(index, func(s CardState) (CardState, error) {
		resistance := 1.0
		if s.isHolded {
			resistance = 2
		}
		d := s.distanceFromInitialPosition
		return s.ToDistanceFromInitialPositionSet((amount-d)/resistance + d)
	}), nil
}
