package entities

import (
	"old-maid-server/internal/apperr"
	"slices"
)

type Player struct {
	id                  PlayerID
	authenticationToken LongSecret
	cardsInHand         []Card
	playerIDOnNext      PlayerID
	playerIDOnPrev      PlayerID
}

func (p *Player) ID() PlayerID {
	return p.id
}

func (p *Player) CardsInHand() []Card {
	return slices.Clone(p.cardsInHand)
}

func (p *Player) CardCount() int {
	return len(p.cardsInHand)
}

// PlayerIDOnNext is the seat this player pulls cards from.
func (p *Player) PlayerIDOnNext() PlayerID {
	return p.playerIDOnNext
}

// PlayerIDOnPrev is the seat that pulls cards from this player.
func (p *Player) PlayerIDOnPrev() PlayerID {
	return p.playerIDOnPrev
}

// DangerouslyAuthenticationToken must only ever be sent to the player's own client.
func (p *Player) DangerouslyAuthenticationToken() LongSecret {
	return p.authenticationToken
}

func (p *Player) credential() {}

func (p *Player) withCards(cards []Card) *Player {
	next := *p
	next.cardsInHand = cards
	return &next
}

// CreateManyForOneGame shuffles a full deck and deals it to the waiting players
// in seating order. The first 54 mod n players receive one extra card.
func CreateManyForOneGame(waitingPlayers []WaitingPlayer, rnd Random) ([]*Player, error) {
	n := len(waitingPlayers)
	if n < MinPlayerCount || n > MaxPlayerCount {
		return nil, apperr.Newf(apperr.KindIllegalParam, "a game needs between %d and %d players, got %d", MinPlayerCount, MaxPlayerCount, n)
	}

	deck := NewDeck()
	rnd.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	players := make([]*Player, n)
	offset := 0
	for i, wp := range waitingPlayers {
		size := DeckSize / n
		if i < DeckSize%n {
			size++
		}
		players[i] = &Player{
			id:                  wp.id,
			authenticationToken: wp.authenticationToken,
			cardsInHand:         slices.Clone(deck[offset : offset+size]),
			playerIDOnNext:      waitingPlayers[(i+1)%n].id,
			playerIDOnPrev:      waitingPlayers[(i-1+n)%n].id,
		}
		offset += size
	}
	return players, nil
}

// ToActionProceeded pulls the card at index out of playerOnNext's hand and
// appends it to p's hand. Only the proceeding player may pull, and never from
// their own hand.
func (p *Player) ToActionProceeded(game *Game, playerOnNext *Player, index int, ctx PlayerContext) (*Player, *Player, error) {
	if !ctx.boundTo(p.id) {
		return nil, nil, illegalContext()
	}
	if p.id != game.playerIDProceeding {
		return nil, nil, apperr.New(apperr.KindIllegalAct, "it is not this player's turn to pull")
	}
	if playerOnNext.id == p.id {
		return nil, nil, apperr.New(apperr.KindIllegalAct, "a player cannot pull from their own hand")
	}
	if playerOnNext.id != game.playerIDProceeded {
		return nil, nil, apperr.New(apperr.KindIllegalAct, "cards can only be pulled from the targeted player")
	}
	if index < 0 || index >= len(playerOnNext.cardsInHand) {
		return nil, nil, apperr.Newf(apperr.KindIllegalAct, "card index %d is out of range", index)
	}

	pulled := playerOnNext.cardsInHand[index]
	me := p.withCards(append(slices.Clone(p.cardsInHand), pulled))
	next := playerOnNext.withCards(slices.Delete(slices.Clone(playerOnNext.cardsInHand), index, index+1))
	return me, next, nil
}

// ToPairsDiscarded sorts the hand and cancels every two consecutive cards of
// the same rank. It returns the reduced player and the removed cards.
func (p *Player) ToPairsDiscarded(ctx PlayerContext) (*Player, []Card, error) {
	if !ctx.boundTo(p.id) {
		return nil, nil, illegalContext()
	}

	sorted := slices.Clone(p.cardsInHand)
	slices.SortStableFunc(sorted, CompareCards)

	kept := make([]Card, 0, len(sorted))
	for _, c := range sorted {
		if n := len(kept); n > 0 && kept[n-1].Rank == c.Rank {
			kept = kept[:n-1]
			continue
		}
		kept = append(kept, c)
	}

	discarded := subtractCards(p.cardsInHand, kept)
	return p.withCards(kept), discarded, nil
}
