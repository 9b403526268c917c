package entities

import "crypto/subtle"

const (
	MinPlayerCount = 2
	MaxPlayerCount = 12
)

// GameID identifies a waiting room, the game created from it and that game's table.
type GameID string

// PlayerID identifies a waiting player, the player dealt from it and that
// player's hand telepresence.
type PlayerID string

// ShortSecret is the join code of a waiting room.
type ShortSecret string

// LongSecret is a bearer authentication token.
type LongSecret string

// Random is the source of ids, secrets and deck permutations.
type Random interface {
	NewID() string
	NewShortSecret() ShortSecret
	NewLongSecret() LongSecret
	Shuffle(n int, swap func(i, j int))
}

func secretsEqual[S ~string](a, b S) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
