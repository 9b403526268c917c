package core

import (
	"context"
	"old-maid-server/internal/apperr"
	database "old-maid-server/internal/db"
	"old-maid-server/internal/entities"
)

// secretAttempts bounds the retries when a fresh join code collides with a
// room that is still open.
const secretAttempts = 5

func (s *Service) CreateWaitingRoom(ctx context.Context) (*entities.WaitingRoom, entities.WaitingPlayer, error) {
	var room *entities.WaitingRoom
	err := s.store.Update(ctx, func(tx database.Tx) error {
		for attempt := 0; attempt < secretAttempts; attempt++ {
			candidate := entities.CreateWaitingRoom(s.rnd)
			taken, err := tx.WaitingRooms().FindBySecret(candidate.DangerouslySecret())
			if err != nil {
				return err
			}
			if taken != nil {
				continue
			}
			room = candidate
			return tx.WaitingRooms().Save(room)
		}
		return apperr.New(apperr.KindRepository, "no free join code")
	})
	if err != nil {
		return nil, entities.WaitingPlayer{}, err
	}

	owner, _ := room.Owner()
	s.log.Debug().Str("room", string(room.ID())).Str("owner", string(owner.ID())).Msg("waiting room created")
	return room, owner, nil
}

func (s *Service) JoinWaitingRoom(ctx context.Context, secret entities.ShortSecret) (*entities.WaitingRoom, entities.WaitingPlayer, error) {
	var (
		room     *entities.WaitingRoom
		newcomer entities.WaitingPlayer
	)
	err := s.store.Update(ctx, func(tx database.Tx) error {
		found, err := tx.WaitingRooms().FindBySecret(secret)
		if err != nil {
			return err
		}
		if found == nil {
			return apperr.New(apperr.KindNotFound, "no waiting room with this secret")
		}

		room, newcomer, err = found.ToJoined(secret, s.rnd)
		if err != nil {
			return err
		}
		return tx.WaitingRooms().Save(room)
	})
	if err != nil {
		return nil, entities.WaitingPlayer{}, err
	}

	s.log.Debug().Str("room", string(room.ID())).Str("player", string(newcomer.ID())).Msg("player joined")
	return room, newcomer, nil
}

// LeaveWaitingRoom removes the member holding token. A room left empty is
// deleted.
func (s *Service) LeaveWaitingRoom(ctx context.Context, roomID entities.GameID, token entities.LongSecret) (*entities.WaitingRoom, entities.PlayerID, error) {
	var (
		room    *entities.WaitingRoom
		leaver  entities.PlayerID
		deleted bool
	)
	err := s.store.Update(ctx, func(tx database.Tx) error {
		found, err := findRoom(tx, roomID)
		if err != nil {
			return err
		}
		player, ok := found.PlayerByToken(token)
		if !ok {
			return apperr.Forbidden()
		}
		pctx, err := entities.NewPlayerContext(player, token)
		if err != nil {
			return err
		}

		room, err = found.ToLeft(player.ID(), pctx)
		if err != nil {
			return err
		}
		leaver = player.ID()
		if len(room.Players()) == 0 {
			deleted = true
			return tx.WaitingRooms().Delete(room.ID())
		}
		return tx.WaitingRooms().Save(room)
	})
	if err != nil {
		return nil, "", err
	}

	s.log.Debug().Str("room", string(room.ID())).Str("player", string(leaver)).Bool("deleted", deleted).Msg("player left")
	return room, leaver, nil
}

func (s *Service) KickPlayer(ctx context.Context, roomID entities.GameID, targetID entities.PlayerID, ownerToken entities.LongSecret) (*entities.WaitingRoom, error) {
	var room *entities.WaitingRoom
	err := s.store.Update(ctx, func(tx database.Tx) error {
		found, err := findRoom(tx, roomID)
		if err != nil {
			return err
		}
		octx, err := entities.NewWaitingRoomOwnerContext(found, ownerToken)
		if err != nil {
			return err
		}

		room, err = found.ToKicked(targetID, octx)
		if err != nil {
			return err
		}
		return tx.WaitingRooms().Save(room)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("room", string(room.ID())).Str("player", string(targetID)).Msg("player kicked")
	return room, nil
}

func (s *Service) DeleteWaitingRoom(ctx context.Context, roomID entities.GameID, ownerToken entities.LongSecret) (*entities.WaitingRoom, error) {
	var room *entities.WaitingRoom
	err := s.store.Update(ctx, func(tx database.Tx) error {
		found, err := findRoom(tx, roomID)
		if err != nil {
			return err
		}
		if _, err := entities.NewWaitingRoomOwnerContext(found, ownerToken); err != nil {
			return err
		}
		room = found
		return tx.WaitingRooms().Delete(roomID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("room", string(room.ID())).Msg("waiting room deleted")
	return room, nil
}

func (s *Service) GetWaitingRoom(ctx context.Context, roomID entities.GameID) (*entities.WaitingRoom, error) {
	var room *entities.WaitingRoom
	err := s.store.View(ctx, func(tx database.Tx) error {
		var err error
		room, err = findRoom(tx, roomID)
		return err
	})
	return room, err
}
