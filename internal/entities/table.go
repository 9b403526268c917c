package entities

import "slices"

// Table is the discard pile of one game.
type Table struct {
	id    GameID
	cards []Card
}

func CreateTable(id GameID) *Table {
	return &Table{id: id, cards: []Card{}}
}

func (t *Table) ID() GameID {
	return t.id
}

func (t *Table) Cards() []Card {
	return slices.Clone(t.cards)
}

func (t *Table) ToCardsPut(cards []Card, ctx GamePlayerContext) (*Table, error) {
	if !ctx.boundTo(t.id) {
		return nil, illegalContext()
	}
	return &Table{id: t.id, cards: slices.Concat(t.cards, cards)}, nil
}
