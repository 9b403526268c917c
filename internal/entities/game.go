package entities

import (
	"old-maid-server/internal/apperr"
	"slices"
)

type Game struct {
	id                 GameID
	players            []*Player
	table              *Table
	playerIDProceeding PlayerID
	playerIDProceeded  PlayerID
	winners            []PlayerID
}

// CreateGame deals the members of room. The first dealt player proceeds and
// pulls from their next neighbour.
func CreateGame(room *WaitingRoom, rnd Random) (*Game, error) {
	players, err := CreateManyForOneGame(room.players, rnd)
	if err != nil {
		return nil, err
	}
	return &Game{
		id:                 room.id,
		players:            players,
		table:              CreateTable(room.id),
		playerIDProceeding: players[0].id,
		playerIDProceeded:  players[0].playerIDOnNext,
		winners:            []PlayerID{},
	}, nil
}

func (g *Game) ID() GameID {
	return g.id
}

// Players returns the roster as dealt. Current hands live with each Player
// entity, not here.
func (g *Game) Players() []*Player {
	return slices.Clone(g.players)
}

func (g *Game) Player(id PlayerID) (*Player, bool) {
	i := slices.IndexFunc(g.players, func(p *Player) bool { return p.id == id })
	if i < 0 {
		return nil, false
	}
	return g.players[i], true
}

func (g *Game) Table() *Table {
	return g.table
}

// PlayerIDProceeding is the player whose turn it is.
func (g *Game) PlayerIDProceeding() PlayerID {
	return g.playerIDProceeding
}

// PlayerIDProceeded is the player being pulled from this turn.
func (g *Game) PlayerIDProceeded() PlayerID {
	return g.playerIDProceeded
}

func (g *Game) Winners() []PlayerID {
	return slices.Clone(g.winners)
}

func (g *Game) HasWon(id PlayerID) bool {
	return slices.Contains(g.winners, id)
}

// IsFinished reports whether every player has emptied their hand.
func (g *Game) IsFinished() bool {
	return len(g.winners) == len(g.players)
}

// ToTurnChanged hands the turn to the player who was pulled from. Neighbours
// come from the fixed seating ring, so players who already won are not skipped.
func (g *Game) ToTurnChanged(ctx PlayerContext) (*Game, error) {
	if !ctx.boundTo(g.playerIDProceeding) {
		return nil, apperr.New(apperr.KindIllegalTurnChange, "only the proceeding player can end the turn")
	}
	proceeded, ok := g.Player(g.playerIDProceeded)
	if !ok {
		return nil, apperr.New(apperr.KindIllegalTurnChange, "proceeded player is not in this game")
	}

	next := *g
	next.playerIDProceeding = proceeded.id
	next.playerIDProceeded = proceeded.playerIDOnNext
	return &next, nil
}

func (g *Game) ToWinnerAdded(player *Player, ctx GamePlayerContext) (*Game, error) {
	if !ctx.boundTo(g.id) {
		return nil, illegalContext()
	}
	if _, ok := g.Player(player.id); !ok {
		return nil, apperr.New(apperr.KindIllegalParam, "player is not in this game")
	}
	if len(player.cardsInHand) > 0 {
		return nil, apperr.Newf(apperr.KindIllegalParam, "player still holds %d cards", len(player.cardsInHand))
	}
	if g.HasWon(player.id) {
		return g, nil
	}

	next := *g
	next.winners = append(slices.Clone(g.winners), player.id)
	return &next, nil
}

func (g *Game) ToTableSet(table *Table, ctx GamePlayerContext) (*Game, error) {
	if !ctx.boundTo(g.id) {
		return nil, illegalContext()
	}
	if table.id != g.id {
		return nil, apperr.New(apperr.KindIllegalParam, "table belongs to another game")
	}

	next := *g
	next.table = table
	return &next, nil
}
