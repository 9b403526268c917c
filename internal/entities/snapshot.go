package entities

import "slices"

// Snapshots are the storage form of the entities. They carry secrets and must
// never reach a client.

type WaitingPlayerSnapshot struct {
	ID                  PlayerID   `json:"id"`
	AuthenticationToken LongSecret `json:"authenticationToken"`
}

type WaitingRoomSnapshot struct {
	ID      GameID                  `json:"id"`
	Secret  ShortSecret             `json:"secret"`
	OwnerID PlayerID                `json:"ownerId"`
	Players []WaitingPlayerSnapshot `json:"players"`
}

type PlayerSnapshot struct {
	ID                  PlayerID   `json:"id"`
	AuthenticationToken LongSecret `json:"authenticationToken"`
	CardsInHand         []Card     `json:"cardsInHand"`
	PlayerIDOnNext      PlayerID   `json:"playerIdOnNext"`
	PlayerIDOnPrev      PlayerID   `json:"playerIdOnPrev"`
}

type TableSnapshot struct {
	ID    GameID `json:"id"`
	Cards []Card `json:"cards"`
}

type GameSnapshot struct {
	ID                 GameID           `json:"id"`
	Players            []PlayerSnapshot `json:"players"`
	Table              TableSnapshot    `json:"table"`
	PlayerIDProceeding PlayerID         `json:"playerIdProceeding"`
	PlayerIDProceeded  PlayerID         `json:"playerIdProceeded"`
	Winners            []PlayerID       `json:"winners"`
}

type CardStateSnapshot struct {
	Card                        Card    `json:"card"`
	X                           float64 `json:"x"`
	Y                           float64 `json:"y"`
	DistanceFromInitialPosition float64 `json:"distanceFromInitialPosition"`
	IsHolded                    bool    `json:"isHolded"`
}

type HandTelepresenceSnapshot struct {
	ID                  PlayerID            `json:"id"`
	AuthenticationToken LongSecret          `json:"authenticationToken"`
	Cards               []CardStateSnapshot `json:"cards"`
	LookingAt           int                 `json:"lookingAt"`
}

func (r *WaitingRoom) Snapshot() WaitingRoomSnapshot {
	players := make([]WaitingPlayerSnapshot, len(r.players))
	for i, p := range r.players {
		players[i] = WaitingPlayerSnapshot{ID: p.id, AuthenticationToken: p.authenticationToken}
	}
	return WaitingRoomSnapshot{ID: r.id, Secret: r.secret, OwnerID: r.ownerID, Players: players}
}

func RestoreWaitingRoom(s WaitingRoomSnapshot) *WaitingRoom {
	players := make([]WaitingPlayer, len(s.Players))
	for i, p := range s.Players {
		players[i] = WaitingPlayer{id: p.ID, authenticationToken: p.AuthenticationToken}
	}
	return &WaitingRoom{id: s.ID, secret: s.Secret, ownerID: s.OwnerID, players: players}
}

func (p *Player) Snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		ID:                  p.id,
		AuthenticationToken: p.authenticationToken,
		CardsInHand:         slices.Clone(p.cardsInHand),
		PlayerIDOnNext:      p.playerIDOnNext,
		PlayerIDOnPrev:      p.playerIDOnPrev,
	}
}

func RestorePlayer(s PlayerSnapshot) *Player {
	return &Player{
		id:                  s.ID,
		authenticationToken: s.AuthenticationToken,
		cardsInHand:         slices.Clone(s.CardsInHand),
		playerIDOnNext:      s.PlayerIDOnNext,
		playerIDOnPrev:      s.PlayerIDOnPrev,
	}
}

func (t *Table) Snapshot() TableSnapshot {
	return TableSnapshot{ID: t.id, Cards: slices.Clone(t.cards)}
}

func RestoreTable(s TableSnapshot) *Table {
	return &Table{id: s.ID, cards: slices.Clone(s.Cards)}
}

func (g *Game) Snapshot() GameSnapshot {
	players := make([]PlayerSnapshot, len(g.players))
	for i, p := range g.players {
		players[i] = p.Snapshot()
	}
	return GameSnapshot{
		ID:                 g.id,
		Players:            players,
		Table:              g.table.Snapshot(),
		PlayerIDProceeding: g.playerIDProceeding,
		PlayerIDProceeded:  g.playerIDProceeded,
		Winners:            slices.Clone(g.winners),
	}
}

func RestoreGame(s GameSnapshot) *Game {
	players := make([]*Player, len(s.Players))
	for i, p := range s.Players {
		players[i] = RestorePlayer(p)
	}
	winners := slices.Clone(s.Winners)
	if winners == nil {
		winners = []PlayerID{}
	}
	return &Game{
		id:                 s.ID,
		players:            players,
		table:              RestoreTable(s.Table),
		playerIDProceeding: s.PlayerIDProceeding,
		playerIDProceeded:  s.PlayerIDProceeded,
		winners:            winners,
	}
}

func (h *HandTelepresence) Snapshot() HandTelepresenceSnapshot {
	cards := make([]CardStateSnapshot, len(h.cards))
	for i, c := range h.cards {
		cards[i] = CardStateSnapshot{
			Card:                        c.card,
			X:                           c.x,
			Y:                           c.y,
			DistanceFromInitialPosition: c.distanceFromInitialPosition,
			IsHolded:                    c.isHolded,
		}
	}
	return HandTelepresenceSnapshot{
		ID:                  h.id,
		AuthenticationToken: h.authenticationToken,
		Cards:               cards,
		LookingAt:           h.lookingAt,
	}
}

func RestoreHandTelepresence(s HandTelepresenceSnapshot) *HandTelepresence {
	cards := make([]CardState, len(s.Cards))
	for i, c := range s.Cards {
		cards[i] = CardState{
			card:                        c.Card,
			x:                           c.X,
			y:                           c.Y,
			distanceFromInitialPosition: c.DistanceFromInitialPosition,
			isHolded:                    c.IsHolded,
		}
	}
	return &HandTelepresence{
		id:                  s.ID,
		authenticationToken: s.AuthenticationToken,
		cards:               cards,
		lookingAt:           s.LookingAt,
	}
}
