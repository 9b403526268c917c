package core

import (
	"context"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"old-maid-server/internal/apperr"
	database "old-maid-server/internal/db"
	"old-maid-server/internal/entities"
	"old-maid-server/internal/random"
	"testing"
)

func newService(t *testing.T) *Service {
	t.Helper()
	store, err := database.Open(database.Config{Driver: database.DriverMemory}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, random.Source{}, zerolog.Nop())
}

type seat struct {
	id    entities.PlayerID
	token entities.LongSecret
}

// startGame opens a room, fills it with n members and deals it.
func startGame(t *testing.T, s *Service, n int) (*entities.Game, map[entities.PlayerID]seat) {
	t.Helper()
	ctx := context.Background()

	room, owner, err := s.CreateWaitingRoom(ctx)
	require.NoError(t, err)
	seats := map[entities.PlayerID]seat{
		owner.ID(): {owner.ID(), owner.DangerouslyAuthenticationToken()},
	}
	for i := 1; i < n; i++ {
		_, joined, err := s.JoinWaitingRoom(ctx, room.DangerouslySecret())
		require.NoError(t, err)
		seats[joined.ID()] = seat{joined.ID(), joined.DangerouslyAuthenticationToken()}
	}

	game, err := s.CreateGame(ctx, room.ID(), owner.DangerouslyAuthenticationToken())
	require.NoError(t, err)
	return game, seats
}

func TestWaitingRoomLifecycle(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	room, owner, err := s.CreateWaitingRoom(ctx)
	require.NoError(t, err)
	assert.Equal(t, owner.ID(), room.OwnerID())

	joinedRoom, guest, err := s.JoinWaitingRoom(ctx, room.DangerouslySecret())
	require.NoError(t, err)
	assert.Len(t, joinedRoom.Players(), 2)
	assert.NotEqual(t, owner.DangerouslyAuthenticationToken(), guest.DangerouslyAuthenticationToken())

	_, _, err = s.JoinWaitingRoom(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.KickPlayer(ctx, room.ID(), owner.ID(), guest.DangerouslyAuthenticationToken())
	assert.ErrorIs(t, err, apperr.ErrIllegalAuthenticationToken)

	kicked, err := s.KickPlayer(ctx, room.ID(), guest.ID(), owner.DangerouslyAuthenticationToken())
	require.NoError(t, err)
	assert.Len(t, kicked.Players(), 1)

	stored, err := s.GetWaitingRoom(ctx, room.ID())
	require.NoError(t, err)
	assert.Equal(t, kicked.Snapshot(), stored.Snapshot())
}

func TestLeaveWaitingRoomDeletesEmptyRoom(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	room, owner, err := s.CreateWaitingRoom(ctx)
	require.NoError(t, err)
	_, guest, err := s.JoinWaitingRoom(ctx, room.DangerouslySecret())
	require.NoError(t, err)

	_, _, err = s.LeaveWaitingRoom(ctx, room.ID(), "not a token")
	assert.ErrorIs(t, err, apperr.ErrIllegalAuthenticationToken)

	left, leaver, err := s.LeaveWaitingRoom(ctx, room.ID(), owner.DangerouslyAuthenticationToken())
	require.NoError(t, err)
	assert.Equal(t, owner.ID(), leaver)
	_, hasOwner := left.Owner()
	assert.False(t, hasOwner)

	_, _, err = s.LeaveWaitingRoom(ctx, room.ID(), guest.DangerouslyAuthenticationToken())
	require.NoError(t, err)

	_, err = s.GetWaitingRoom(ctx, room.ID())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteWaitingRoomRequiresOwner(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	room, owner, err := s.CreateWaitingRoom(ctx)
	require.NoError(t, err)
	_, guest, err := s.JoinWaitingRoom(ctx, room.DangerouslySecret())
	require.NoError(t, err)

	_, err = s.DeleteWaitingRoom(ctx, room.ID(), guest.DangerouslyAuthenticationToken())
	assert.ErrorIs(t, err, apperr.ErrIllegalAuthenticationToken)

	_, err = s.DeleteWaitingRoom(ctx, room.ID(), owner.DangerouslyAuthenticationToken())
	require.NoError(t, err)
	_, err = s.GetWaitingRoom(ctx, room.ID())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateGameConsumesRoom(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	room, owner, err := s.CreateWaitingRoom(ctx)
	require.NoError(t, err)

	_, err = s.CreateGame(ctx, room.ID(), owner.DangerouslyAuthenticationToken())
	assert.ErrorIs(t, err, apperr.ErrIllegalParam, "a lone owner cannot start a game")

	_, guest, err := s.JoinWaitingRoom(ctx, room.DangerouslySecret())
	require.NoError(t, err)
	_, err = s.CreateGame(ctx, room.ID(), guest.DangerouslyAuthenticationToken())
	assert.ErrorIs(t, err, apperr.ErrIllegalAuthenticationToken)

	game, err := s.CreateGame(ctx, room.ID(), owner.DangerouslyAuthenticationToken())
	require.NoError(t, err)
	assert.Equal(t, room.ID(), game.ID())

	_, err = s.GetWaitingRoom(ctx, room.ID())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	stored, players, err := s.GetGame(ctx, game.ID())
	require.NoError(t, err)
	assert.Equal(t, game.Snapshot(), stored.Snapshot())
	total := 0
	for _, p := range players {
		total += p.CardCount()
	}
	assert.Equal(t, entities.DeckSize, total)
}

func TestWrongTokenLeavesStateUntouched(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	game, seats := startGame(t, s, 3)
	proceeding := game.PlayerIDProceeding()

	before, beforePlayers, err := s.GetGame(ctx, game.ID())
	require.NoError(t, err)

	_, _, err = s.ProceedAction(ctx, game.ID(), proceeding, 0, "wrong")
	assert.ErrorIs(t, err, apperr.ErrIllegalAuthenticationToken)
	_, _, _, err = s.DiscardPairs(ctx, game.ID(), proceeding, "wrong")
	assert.ErrorIs(t, err, apperr.ErrIllegalAuthenticationToken)
	_, err = s.ChangeTurn(ctx, game.ID(), proceeding, "wrong")
	assert.ErrorIs(t, err, apperr.ErrIllegalAuthenticationToken)
	_, err = s.ChangeTurn(ctx, game.ID(), game.PlayerIDProceeded(), seats[game.PlayerIDProceeded()].token)
	assert.ErrorIs(t, err, apperr.ErrIllegalTurnChange)

	after, afterPlayers, err := s.GetGame(ctx, game.ID())
	require.NoError(t, err)
	assert.Equal(t, before.Snapshot(), after.Snapshot())
	for i := range beforePlayers {
		assert.Equal(t, beforePlayers[i].Snapshot(), afterPlayers[i].Snapshot())
	}
}

func TestProceedActionAndDiscard(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	game, seats := startGame(t, s, 3)
	me := seats[game.PlayerIDProceeding()]
	target := game.PlayerIDProceeded()

	before, err := s.GetPlayer(ctx, target)
	require.NoError(t, err)
	pulled := before.CardsInHand()[0]

	mine, theirs, err := s.ProceedAction(ctx, game.ID(), me.id, 0, me.token)
	require.NoError(t, err)
	assert.Equal(t, pulled, mine.CardsInHand()[mine.CardCount()-1])
	assert.Equal(t, before.CardCount()-1, theirs.CardCount())

	_, _, err = s.ProceedAction(ctx, game.ID(), me.id, 99, me.token)
	assert.ErrorIs(t, err, apperr.ErrIllegalAct)

	updated, player, discarded, err := s.DiscardPairs(ctx, game.ID(), me.id, me.token)
	require.NoError(t, err)
	assert.ElementsMatch(t, discarded, updated.Table().Cards())
	assert.Equal(t, mine.CardCount()-len(discarded), player.CardCount())
	assert.Zero(t, len(discarded)%2)
}

func countCards(t *testing.T, s *Service, gameID entities.GameID) int {
	t.Helper()
	game, players, err := s.GetGame(context.Background(), gameID)
	require.NoError(t, err)
	total := len(game.Table().Cards())
	for _, p := range players {
		total += p.CardCount()
	}
	return total
}

func TestOnlyTheProceedingPlayerPulls(t *testing.T) {
	for _, n := range []int{2, 3} {
		t.Run(fmt.Sprintf("%d players", n), func(t *testing.T) {
			s := newService(t)
			ctx := context.Background()
			game, seats := startGame(t, s, n)
			target := seats[game.PlayerIDProceeded()]
			me := seats[game.PlayerIDProceeding()]
			require.Equal(t, entities.DeckSize, countCards(t, s, game.ID()))

			_, _, err := s.ProceedAction(ctx, game.ID(), target.id, 0, target.token)
			assert.ErrorIs(t, err, apperr.ErrIllegalAct)
			assert.Equal(t, entities.DeckSize, countCards(t, s, game.ID()))

			for id, seat := range seats {
				if id == me.id || id == target.id {
					continue
				}
				_, _, err := s.ProceedAction(ctx, game.ID(), seat.id, 0, seat.token)
				assert.ErrorIs(t, err, apperr.ErrIllegalAct)
			}

			_, _, err = s.ProceedAction(ctx, game.ID(), me.id, 0, me.token)
			require.NoError(t, err)
			assert.Equal(t, entities.DeckSize, countCards(t, s, game.ID()))
		})
	}
}

func TestFullGameIsReleasedWhenFinished(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	game, seats := startGame(t, s, 2)
	gameID := game.ID()

	for id, seat := range seats {
		_, _, _, err := s.DiscardPairs(ctx, gameID, id, seat.token)
		require.NoError(t, err)
	}

	for turn := 0; turn < entities.DeckSize; turn++ {
		current, _, err := s.GetGame(ctx, gameID)
		require.NoError(t, err)
		me := seats[current.PlayerIDProceeding()]
		target := seats[current.PlayerIDProceeded()]

		_, _, err = s.ProceedAction(ctx, gameID, me.id, 0, me.token)
		require.NoError(t, err)
		_, player, _, err := s.DiscardPairs(ctx, gameID, me.id, me.token)
		require.NoError(t, err)
		other, err := s.GetPlayer(ctx, target.id)
		require.NoError(t, err)

		if player.CardCount() == 0 && other.CardCount() == 0 {
			_, err := s.Win(ctx, gameID, me.id, me.token)
			require.NoError(t, err)
			final, err := s.Win(ctx, gameID, target.id, me.token)
			require.NoError(t, err)
			assert.True(t, final.IsFinished())

			_, _, err = s.GetGame(ctx, gameID)
			assert.ErrorIs(t, err, apperr.ErrNotFound)
			_, err = s.GetPlayer(ctx, me.id)
			assert.ErrorIs(t, err, apperr.ErrNotFound)
			return
		}

		_, err = s.Win(ctx, gameID, me.id, me.token)
		if player.CardCount() > 0 {
			assert.ErrorIs(t, err, apperr.ErrIllegalParam)
		}
		_, err = s.ChangeTurn(ctx, gameID, me.id, me.token)
		require.NoError(t, err)
	}
	t.Fatal("two player game did not finish")
}

func TestHandTelepresence(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	game, seats := startGame(t, s, 3)
	owner := seats[game.PlayerIDProceeded()]

	player, err := s.GetPlayer(ctx, owner.id)
	require.NoError(t, err)
	hand := player.CardsInHand()
	placements := make([]CardPlacement, len(hand))
	for i, c := range hand {
		placements[len(hand)-1-i] = CardPlacement{Card: c, X: float64(i) / float64(len(hand)), Y: 0.5}
	}

	_, _, err = s.CreateHandTelepresence(ctx, owner.id, owner.token, placements[1:])
	assert.ErrorIs(t, err, apperr.ErrIllegalParam, "a missing card is rejected")

	bad := append([]CardPlacement{}, placements...)
	bad[0].X = 1.5
	_, _, err = s.CreateHandTelepresence(ctx, owner.id, owner.token, bad)
	assert.ErrorIs(t, err, apperr.ErrIllegalParam)

	_, _, err = s.CreateHandTelepresence(ctx, owner.id, "wrong", placements)
	assert.ErrorIs(t, err, apperr.ErrIllegalAuthenticationToken)

	telepresence, prev, err := s.CreateHandTelepresence(ctx, owner.id, owner.token, placements)
	require.NoError(t, err)
	assert.Equal(t, player.PlayerIDOnPrev(), prev)
	assert.Len(t, telepresence.Cards(), len(hand))
	token := telepresence.DangerouslyAuthenticationToken()

	_, err = s.LookCard(ctx, owner.id, 0, owner.token)
	assert.ErrorIs(t, err, apperr.ErrIllegalAuthenticationToken, "the player token does not drive the telepresence")

	looked, err := s.LookCard(ctx, owner.id, 1, token)
	require.NoError(t, err)
	assert.Equal(t, 1, looked.LookingAt())

	held, err := s.HoldCard(ctx, owner.id, []int{1}, token)
	require.NoError(t, err)
	assert.True(t, held.Cards()[1].IsHolded())

	scrubbed, err := s.ScrubCard(ctx, owner.id, 0, token)
	require.NoError(t, err)
	assert.Greater(t, scrubbed.Cards()[0].X(), held.Cards()[0].X())

	picked, err := s.PickCard(ctx, owner.id, 1, 0.25, token)
	require.NoError(t, err)
	assert.InDelta(t, 0.125, picked.Cards()[1].DistanceFromInitialPosition(), 1e-9, "held cards resist the pick")

	_, err = s.LookCard(ctx, "missing", 0, token)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
