package entities

import (
	"fmt"
	"github.com/stretchr/testify/require"
	"math/rand"
	"testing"
)

// fakeRandom hands out sequential ids and tokens. With a nil rng the deck is
// left in its unshuffled order.
type fakeRandom struct {
	n   int
	rng *rand.Rand
}

func newFakeRandom() *fakeRandom {
	return &fakeRandom{}
}

func newSeededRandom(seed int64) *fakeRandom {
	return &fakeRandom{rng: rand.New(rand.NewSource(seed))}
}

func (f *fakeRandom) NewID() string {
	f.n++
	return fmt.Sprintf("id-%d", f.n)
}

func (f *fakeRandom) NewShortSecret() ShortSecret {
	return "abcd"
}

func (f *fakeRandom) NewLongSecret() LongSecret {
	f.n++
	return LongSecret(fmt.Sprintf("token-%d", f.n))
}

func (f *fakeRandom) Shuffle(n int, swap func(i, j int)) {
	if f.rng != nil {
		f.rng.Shuffle(n, swap)
	}
}

// newRoom returns a room with n members; the first one is the owner.
func newRoom(t *testing.T, rnd Random, n int) *WaitingRoom {
	t.Helper()
	room := CreateWaitingRoom(rnd)
	for i := 1; i < n; i++ {
		var err error
		room, _, err = room.ToJoined(room.DangerouslySecret(), rnd)
		require.NoError(t, err)
	}
	return room
}

func newGame(t *testing.T, rnd Random, n int) *Game {
	t.Helper()
	game, err := CreateGame(newRoom(t, rnd, n), rnd)
	require.NoError(t, err)
	return game
}

func playerContext(t *testing.T, target PlayerCredential) PlayerContext {
	t.Helper()
	ctx, err := NewPlayerContext(target, target.DangerouslyAuthenticationToken())
	require.NoError(t, err)
	return ctx
}

func gamePlayerContext(t *testing.T, game *Game) GamePlayerContext {
	t.Helper()
	ctx, err := NewGamePlayerContext(game, game.players[0].authenticationToken)
	require.NoError(t, err)
	return ctx
}

func hasDuplicateRank(cards []Card) bool {
	seen := map[Rank]bool{}
	for _, c := range cards {
		if seen[c.Rank] {
			return true
		}
		seen[c.Rank] = true
	}
	return false
}
