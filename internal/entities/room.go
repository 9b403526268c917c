package entities

import (
	"old-maid-server/internal/apperr"
	"slices"
)

type WaitingPlayer struct {
	id                  PlayerID
	authenticationToken LongSecret
}

func newWaitingPlayer(rnd Random) WaitingPlayer {
	return WaitingPlayer{
		id:                  PlayerID(rnd.NewID()),
		authenticationToken: rnd.NewLongSecret(),
	}
}

func (p WaitingPlayer) ID() PlayerID {
	return p.id
}

// DangerouslyAuthenticationToken must only ever be sent to the player's own client.
func (p WaitingPlayer) DangerouslyAuthenticationToken() LongSecret {
	return p.authenticationToken
}

func (p WaitingPlayer) credential() {}

type WaitingRoom struct {
	id      GameID
	secret  ShortSecret
	ownerID PlayerID
	players []WaitingPlayer
}

// CreateWaitingRoom opens a room whose only member is its owner.
func CreateWaitingRoom(rnd Random) *WaitingRoom {
	owner := newWaitingPlayer(rnd)
	return &WaitingRoom{
		id:      GameID(rnd.NewID()),
		secret:  rnd.NewShortSecret(),
		ownerID: owner.id,
		players: []WaitingPlayer{owner},
	}
}

func (r *WaitingRoom) ID() GameID {
	return r.id
}

func (r *WaitingRoom) OwnerID() PlayerID {
	return r.ownerID
}

func (r *WaitingRoom) Players() []WaitingPlayer {
	return slices.Clone(r.players)
}

// Owner returns the owner while they are still in the room.
func (r *WaitingRoom) Owner() (WaitingPlayer, bool) {
	return r.player(r.ownerID)
}

// DangerouslySecret must only ever be sent to members of the room.
func (r *WaitingRoom) DangerouslySecret() ShortSecret {
	return r.secret
}

// PlayerByToken finds the member holding token.
func (r *WaitingRoom) PlayerByToken(token LongSecret) (WaitingPlayer, bool) {
	for _, p := range r.players {
		if secretsEqual(p.authenticationToken, token) {
			return p, true
		}
	}
	return WaitingPlayer{}, false
}

func (r *WaitingRoom) player(id PlayerID) (WaitingPlayer, bool) {
	i := slices.IndexFunc(r.players, func(p WaitingPlayer) bool { return p.id == id })
	if i < 0 {
		return WaitingPlayer{}, false
	}
	return r.players[i], true
}

func (r *WaitingRoom) withPlayers(players []WaitingPlayer) *WaitingRoom {
	next := *r
	next.players = players
	return &next
}

func (r *WaitingRoom) ToJoined(secret ShortSecret, rnd Random) (*WaitingRoom, WaitingPlayer, error) {
	if !secretsEqual(r.secret, secret) {
		return nil, WaitingPlayer{}, apperr.New(apperr.KindInvalidSecret, "secret does not match")
	}
	if len(r.players)+1 > MaxPlayerCount {
		return nil, WaitingPlayer{}, apperr.Newf(apperr.KindMaxPlayerCountExceeded, "a room holds at most %d players", MaxPlayerCount)
	}

	joined := newWaitingPlayer(rnd)
	players := append(slices.Clone(r.players), joined)
	return r.withPlayers(players), joined, nil
}

// ToLeft removes playerID. The owner may leave too, which leaves the room
// without an owner.
func (r *WaitingRoom) ToLeft(playerID PlayerID, ctx PlayerContext) (*WaitingRoom, error) {
	if !ctx.boundTo(playerID) {
		return nil, illegalContext()
	}
	return r.without(playerID), nil
}

func (r *WaitingRoom) ToKicked(targetID PlayerID, ctx WaitingRoomOwnerContext) (*WaitingRoom, error) {
	if !ctx.boundTo(r.id) {
		return nil, illegalContext()
	}
	return r.without(targetID), nil
}

func (r *WaitingRoom) without(id PlayerID) *WaitingRoom {
	players := slices.DeleteFunc(slices.Clone(r.players), func(p WaitingPlayer) bool { return p.id == id })
	return r.withPlayers(players)
}
