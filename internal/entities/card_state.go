package entities

import "old-maid-server/internal/apperr"

// CardState is one card of a hand telepresence. Coordinates and lift are
// fractions of the hand area and always lie in [0,1].
type CardState struct {
	card                        Card
	x                           float64
	y                           float64
	distanceFromInitialPosition float64
	isHolded                    bool
}

func NewCardState(card Card, x, y float64) (CardState, error) {
	if !inUnitRange(x) || !inUnitRange(y) {
		return CardState{}, apperr.Newf(apperr.KindIllegalParam, "position (%v, %v) is outside [0,1]", x, y)
	}
	return CardState{card: card, x: x, y: y}, nil
}

func (s CardState) Card() Card {
	return s.card
}

func (s CardState) X() float64 {
	return s.x
}

func (s CardState) Y() float64 {
	return s.y
}

func (s CardState) DistanceFromInitialPosition() float64 {
	return s.distanceFromInitialPosition
}

func (s CardState) IsHolded() bool {
	return s.isHolded
}

func (s CardState) ToPositionSet(x, y float64) (CardState, error) {
	if !inUnitRange(x) || !inUnitRange(y) {
		return CardState{}, apperr.Newf(apperr.KindIllegalParam, "position (%v, %v) is outside [0,1]", x, y)
	}
	s.x, s.y = x, y
	return s, nil
}

func (s CardState) ToDistanceFromInitialPositionSet(distance float64) (CardState, error) {
	if !inUnitRange(distance) {
		return CardState{}, apperr.Newf(apperr.KindIllegalParam, "distance %v is outside [0,1]", distance)
	}
	s.distanceFromInitialPosition = distance
	return s, nil
}

func (s CardState) ToHolded() CardState {
	s.isHolded = true
	return s
}

func (s CardState) ToUnholded() CardState {
	s.isHolded = false
	return s
}

// inUnitRange is false for NaN.
func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}
