package database

import (
	"context"
	"fmt"
	"github.com/rs/zerolog"
	"old-maid-server/internal/entities"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type Config struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// Find methods return a nil entity and a nil error when nothing matches.
// Delete of a missing id is not an error.

type WaitingRoomRepository interface {
	FindByID(id entities.GameID) (*entities.WaitingRoom, error)
	FindBySecret(secret entities.ShortSecret) (*entities.WaitingRoom, error)
	Save(room *entities.WaitingRoom) error
	Delete(id entities.GameID) error
}

type GameRepository interface {
	FindByID(id entities.GameID) (*entities.Game, error)
	Save(game *entities.Game) error
	Delete(id entities.GameID) error
}

type PlayerRepository interface {
	FindByID(id entities.PlayerID) (*entities.Player, error)
	Save(player *entities.Player) error
	Delete(id entities.PlayerID) error
}

type HandTelepresenceRepository interface {
	FindByID(id entities.PlayerID) (*entities.HandTelepresence, error)
	Save(telepresence *entities.HandTelepresence) error
	Delete(id entities.PlayerID) error
}

type Tx interface {
	WaitingRooms() WaitingRoomRepository
	Games() GameRepository
	Players() PlayerRepository
	HandTelepresences() HandTelepresenceRepository
}

// Store runs repository work in transactions. Writes made inside Update are
// applied together or not at all, and Update calls never interleave.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

func Open(cfg Config, logger zerolog.Logger) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case "", DriverMemory:
		store, err = NewMemoryStore()
	case DriverSQLite:
		store, err = NewSQLiteStore(cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info().Str("driver", cfg.Driver).Msg("DB Init finished")
	return store, nil
}
