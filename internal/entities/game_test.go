package entities

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"old-maid-server/internal/apperr"
	"testing"
)

func TestCreateGame(t *testing.T) {
	rnd := newFakeRandom()
	room := newRoom(t, rnd, 4)

	game, err := CreateGame(room, rnd)
	require.NoError(t, err)

	players := game.Players()
	assert.Equal(t, room.ID(), game.ID())
	assert.Equal(t, room.ID(), game.Table().ID())
	assert.Empty(t, game.Table().Cards())
	assert.Equal(t, players[0].ID(), game.PlayerIDProceeding())
	assert.Equal(t, players[1].ID(), game.PlayerIDProceeded())
	assert.Empty(t, game.Winners())
	assert.False(t, game.IsFinished())
}

func TestCreateGameWithSinglePlayer(t *testing.T) {
	rnd := newFakeRandom()

	_, err := CreateGame(CreateWaitingRoom(rnd), rnd)
	assert.ErrorIs(t, err, apperr.ErrIllegalParam)
}

func TestToTurnChanged(t *testing.T) {
	rnd := newFakeRandom()
	game := newGame(t, rnd, 3)
	p := game.Players()

	for _, other := range p[1:] {
		_, err := game.ToTurnChanged(playerContext(t, other))
		assert.ErrorIs(t, err, apperr.ErrIllegalTurnChange)
	}

	changed, err := game.ToTurnChanged(playerContext(t, p[0]))
	require.NoError(t, err)
	assert.Equal(t, p[1].ID(), changed.PlayerIDProceeding())
	assert.Equal(t, p[2].ID(), changed.PlayerIDProceeded())
	assert.Equal(t, p[0].ID(), game.PlayerIDProceeding(), "the receiver is untouched")

	changed, err = changed.ToTurnChanged(playerContext(t, p[1]))
	require.NoError(t, err)
	changed, err = changed.ToTurnChanged(playerContext(t, p[2]))
	require.NoError(t, err)
	assert.Equal(t, p[0].ID(), changed.PlayerIDProceeding())
	assert.Equal(t, p[1].ID(), changed.PlayerIDProceeded())
}

func TestToTurnChangedFollowsStaticRing(t *testing.T) {
	rnd := newFakeRandom()
	game := newGame(t, rnd, 3)
	p := game.Players()
	ctx := gamePlayerContext(t, game)

	// p1 has won, but the ring still hands the turn over through p1.
	emptied := p[1].withCards(nil)
	game, err := game.ToWinnerAdded(emptied, ctx)
	require.NoError(t, err)

	changed, err := game.ToTurnChanged(playerContext(t, p[0]))
	require.NoError(t, err)
	assert.Equal(t, p[1].ID(), changed.PlayerIDProceeding())
}

func TestToWinnerAdded(t *testing.T) {
	rnd := newFakeRandom()
	game := newGame(t, rnd, 2)
	p := game.Players()
	ctx := gamePlayerContext(t, game)

	_, err := game.ToWinnerAdded(p[0], ctx)
	assert.ErrorIs(t, err, apperr.ErrIllegalParam)

	emptied := p[0].withCards(nil)
	won, err := game.ToWinnerAdded(emptied, ctx)
	require.NoError(t, err)
	assert.Equal(t, []PlayerID{p[0].ID()}, won.Winners())

	again, err := won.ToWinnerAdded(emptied, ctx)
	require.NoError(t, err)
	assert.Equal(t, []PlayerID{p[0].ID()}, again.Winners())

	finished, err := again.ToWinnerAdded(p[1].withCards(nil), ctx)
	require.NoError(t, err)
	assert.True(t, finished.IsFinished())
}

func TestToWinnerAddedRejectsStrangers(t *testing.T) {
	rnd := newFakeRandom()
	game := newGame(t, rnd, 2)
	other := newGame(t, rnd, 2)

	_, err := game.ToWinnerAdded(other.players[0].withCards(nil), gamePlayerContext(t, game))
	assert.ErrorIs(t, err, apperr.ErrIllegalParam)

	_, err = game.ToWinnerAdded(game.players[0].withCards(nil), gamePlayerContext(t, other))
	assert.ErrorIs(t, err, apperr.ErrIllegalContext)
}

func TestGamePlayerContext(t *testing.T) {
	rnd := newFakeRandom()
	game := newGame(t, rnd, 3)

	ctx, err := NewGamePlayerContext(game, game.players[2].authenticationToken)
	require.NoError(t, err)
	assert.Equal(t, game.ID(), ctx.GameID())
	assert.Equal(t, game.players[2].ID(), ctx.PlayerID())

	_, err = NewGamePlayerContext(game, "nope")
	assert.ErrorIs(t, err, apperr.ErrIllegalAuthenticationToken)
}

func TestTableSetAndCardsPut(t *testing.T) {
	rnd := newFakeRandom()
	game := newGame(t, rnd, 2)
	ctx := gamePlayerContext(t, game)
	first := []Card{{SuitSpade, RankAce}, {SuitHeart, RankAce}}
	second := []Card{{SuitJoker, RankJoker}, {SuitJoker, RankJoker}}

	table, err := game.Table().ToCardsPut(first, ctx)
	require.NoError(t, err)
	table, err = table.ToCardsPut(second, ctx)
	require.NoError(t, err)
	assert.Equal(t, append(first, second...), table.Cards())

	updated, err := game.ToTableSet(table, ctx)
	require.NoError(t, err)
	assert.Len(t, updated.Table().Cards(), 4)
	assert.Empty(t, game.Table().Cards())

	other := newGame(t, rnd, 2)
	_, err = other.Table().ToCardsPut(first, ctx)
	assert.ErrorIs(t, err, apperr.ErrIllegalContext)
	_, err = game.ToTableSet(other.Table(), ctx)
	assert.ErrorIs(t, err, apperr.ErrIllegalParam)
}

func TestCardConservation(t *testing.T) {
	rnd := newSeededRandom(42)
	game := newGame(t, rnd, 4)
	players := map[PlayerID]*Player{}
	for _, p := range game.Players() {
		players[p.ID()] = p
	}
	gctx := gamePlayerContext(t, game)

	total := func() int {
		sum := len(game.Table().Cards())
		for _, p := range players {
			sum += p.CardCount()
		}
		return sum
	}

	for round := 0; round < 40; round++ {
		me := players[game.PlayerIDProceeding()]
		next := players[game.PlayerIDProceeded()]

		if next.CardCount() > 0 {
			var err error
			me, next, err = me.ToActionProceeded(game, next, round%next.CardCount(), playerContext(t, me))
			require.NoError(t, err)
			players[me.ID()], players[next.ID()] = me, next
		}

		reduced, discarded, err := me.ToPairsDiscarded(playerContext(t, me))
		require.NoError(t, err)
		players[me.ID()] = reduced
		table, err := game.Table().ToCardsPut(discarded, gctx)
		require.NoError(t, err)
		game, err = game.ToTableSet(table, gctx)
		require.NoError(t, err)

		require.Equal(t, DeckSize, total())

		game, err = game.ToTurnChanged(playerContext(t, reduced))
		require.NoError(t, err)
	}
}
