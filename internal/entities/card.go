package entities

import (
	"cmp"
	"fmt"
)

type Suit string

const (
	SuitSpade   Suit = "spade"
	SuitHeart   Suit = "heart"
	SuitClub    Suit = "club"
	SuitDiamond Suit = "diamond"
	SuitJoker   Suit = "joker"
)

type Rank string

const (
	RankJoker Rank = "joker"
	RankAce   Rank = "a"
	Rank2     Rank = "2"
	Rank3     Rank = "3"
	Rank4     Rank = "4"
	Rank5     Rank = "5"
	Rank6     Rank = "6"
	Rank7     Rank = "7"
	Rank8     Rank = "8"
	Rank9     Rank = "9"
	Rank10    Rank = "10"
	RankJack  Rank = "j"
	RankQueen Rank = "q"
	RankKing  Rank = "k"
)

const (
	DeckSize   = 54
	JokerCount = 2
)

var rankedSuits = []Suit{SuitSpade, SuitHeart, SuitClub, SuitDiamond}

var ranks = []Rank{RankAce, Rank2, Rank3, Rank4, Rank5, Rank6, Rank7, Rank8, Rank9, Rank10, RankJack, RankQueen, RankKing}

var suitOrder = map[Suit]int{
	SuitSpade:   0,
	SuitHeart:   1,
	SuitClub:    2,
	SuitDiamond: 3,
	SuitJoker:   4,
}

var rankOrder = map[Rank]int{
	RankJoker: 0,
	RankAce:   1,
	Rank2:     2,
	Rank3:     3,
	Rank4:     4,
	Rank5:     5,
	Rank6:     6,
	Rank7:     7,
	Rank8:     8,
	Rank9:     9,
	Rank10:    10,
	RankJack:  11,
	RankQueen: 12,
	RankKing:  13,
}

type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func (c Card) IsJoker() bool {
	return c.Rank == RankJoker
}

// Valid reports whether c is a card of the deck: a joker, or a ranked card of
// one of the four ranked suits.
func (c Card) Valid() bool {
	if c.IsJoker() || c.Suit == SuitJoker {
		return c.IsJoker() && c.Suit == SuitJoker
	}
	_, okSuit := suitOrder[c.Suit]
	_, okRank := rankOrder[c.Rank]
	return okSuit && okRank
}

func (c Card) String() string {
	if c.IsJoker() {
		return "joker"
	}
	return fmt.Sprintf("%s-%s", c.Suit, c.Rank)
}

// CompareCards orders by rank, then by suit. Jokers sort first.
func CompareCards(a, b Card) int {
	if c := cmp.Compare(rankOrder[a.Rank], rankOrder[b.Rank]); c != 0 {
		return c
	}
	return cmp.Compare(suitOrder[a.Suit], suitOrder[b.Suit])
}

// NewDeck returns the full unshuffled deck.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, suit := range rankedSuits {
		for _, rank := range ranks {
			deck = append(deck, Card{Suit: suit, Rank: rank})
		}
	}
	for i := 0; i < JokerCount; i++ {
		deck = append(deck, Card{Suit: SuitJoker, Rank: RankJoker})
	}
	return deck
}

// subtractCards removes from a one occurrence of every card in b.
func subtractCards(a, b []Card) []Card {
	counts := make(map[Card]int, len(b))
	for _, c := range b {
		counts[c]++
	}
	rest := make([]Card, 0, len(a))
	for _, c := range a {
		if counts[c] > 0 {
			counts[c]--
			continue
		}
		rest = append(rest, c)
	}
	return rest
}

// SameCards reports whether a and b hold the same cards with the same
// multiplicity, in any order.
func SameCards(a, b []Card) bool {
	if len(a) != len(b) {
		return false
	}
	return len(subtractCards(a, b)) == 0
}
