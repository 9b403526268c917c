package entities

import "old-maid-server/internal/apperr"

// PlayerCredential is implemented by WaitingPlayer and *Player only.
type PlayerCredential interface {
	ID() PlayerID
	DangerouslyAuthenticationToken() LongSecret
	credential()
}

// PlayerContext proves the caller presented the token of one player.
type PlayerContext struct {
	playerID PlayerID
}

func NewPlayerContext(target PlayerCredential, token LongSecret) (PlayerContext, error) {
	if !secretsEqual(target.DangerouslyAuthenticationToken(), token) {
		return PlayerContext{}, apperr.Forbidden()
	}
	return PlayerContext{playerID: target.ID()}, nil
}

func (c PlayerContext) PlayerID() PlayerID {
	return c.playerID
}

func (c PlayerContext) boundTo(id PlayerID) bool {
	return c.playerID != "" && c.playerID == id
}

// GamePlayerContext proves the caller holds the token of some player of one game.
type GamePlayerContext struct {
	gameID   GameID
	playerID PlayerID
}

func NewGamePlayerContext(game *Game, token LongSecret) (GamePlayerContext, error) {
	for _, p := range game.players {
		if secretsEqual(p.authenticationToken, token) {
			return GamePlayerContext{gameID: game.id, playerID: p.id}, nil
		}
	}
	return GamePlayerContext{}, apperr.Forbidden()
}

func (c GamePlayerContext) GameID() GameID {
	return c.gameID
}

// PlayerID is the roster member whose token was presented.
func (c GamePlayerContext) PlayerID() PlayerID {
	return c.playerID
}

func (c GamePlayerContext) boundTo(id GameID) bool {
	return c.gameID != "" && c.gameID == id
}

type WaitingRoomOwnerContext struct {
	waitingRoomID GameID
}

func NewWaitingRoomOwnerContext(room *WaitingRoom, ownerToken LongSecret) (WaitingRoomOwnerContext, error) {
	owner, ok := room.player(room.ownerID)
	if !ok || !secretsEqual(owner.authenticationToken, ownerToken) {
		return WaitingRoomOwnerContext{}, apperr.Forbidden()
	}
	return WaitingRoomOwnerContext{waitingRoomID: room.id}, nil
}

func (c WaitingRoomOwnerContext) boundTo(id GameID) bool {
	return c.waitingRoomID != "" && c.waitingRoomID == id
}

type HandTelepresenceContext struct {
	handTelepresenceID PlayerID
}

func NewHandTelepresenceContext(telepresence *HandTelepresence, token LongSecret) (HandTelepresenceContext, error) {
	if !secretsEqual(telepresence.authenticationToken, token) {
		return HandTelepresenceContext{}, apperr.Forbidden()
	}
	return HandTelepresenceContext{handTelepresenceID: telepresence.id}, nil
}

func (c HandTelepresenceContext) boundTo(id PlayerID) bool {
	return c.handTelepresenceID != "" && c.handTelepresenceID == id
}

func illegalContext() error {
	return apperr.New(apperr.KindIllegalContext, "context is bound to another entity")
}
