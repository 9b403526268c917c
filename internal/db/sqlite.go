package database

import (
	"context"
	"errors"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"old-maid-server/internal/apperr"
	"old-maid-server/internal/entities"
	"time"
)

type WaitingRoomRow struct {
	ID        string `gorm:"primaryKey"`
	Secret    string `gorm:"uniqueIndex"`
	Data      datatypes.JSONType[entities.WaitingRoomSnapshot]
	UpdatedAt time.Time
}

func (WaitingRoomRow) TableName() string { return "waiting_rooms" }

type GameRow struct {
	ID        string `gorm:"primaryKey"`
	Data      datatypes.JSONType[entities.GameSnapshot]
	UpdatedAt time.Time
}

func (GameRow) TableName() string { return "games" }

type PlayerRow struct {
	ID        string `gorm:"primaryKey"`
	Data      datatypes.JSONType[entities.PlayerSnapshot]
	UpdatedAt time.Time
}

func (PlayerRow) TableName() string { return "players" }

type HandTelepresenceRow struct {
	ID        string `gorm:"primaryKey"`
	Data      datatypes.JSONType[entities.HandTelepresenceSnapshot]
	UpdatedAt time.Time
}

func (HandTelepresenceRow) TableName() string { return "hand_telepresences" }

// SQLiteStore keeps entity snapshots as JSON rows through gorm.
type SQLiteStore struct {
	db *gorm.DB
}

type gormLogWriter struct {
	logger zerolog.Logger
}

func (w gormLogWriter) Printf(format string, args ...interface{}) {
	w.logger.Warn().Msgf(format, args...)
}

func NewSQLiteStore(path string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.New(gormLogWriter{logger: log.With().Str("component", "gorm").Logger()}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	// sqlite allows one writer; a single connection keeps transactions serial.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&WaitingRoomRow{}, &GameRow{}, &PlayerRow{}, &HandTelepresenceRow{}); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) View(ctx context.Context, fn func(tx Tx) error) error {
	return fn(gormTx{db: s.db.WithContext(ctx)})
}

func (s *SQLiteStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTx{db: tx})
	})
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormTx struct {
	db *gorm.DB
}

func (t gormTx) WaitingRooms() WaitingRoomRepository { return gormRooms(t) }
func (t gormTx) Games() GameRepository               { return gormGames(t) }
func (t gormTx) Players() PlayerRepository           { return gormPlayers(t) }
func (t gormTx) HandTelepresences() HandTelepresenceRepository {
	return gormTelepresences(t)
}

// take loads the row matching query into dest and reports whether it exists.
func (t gormTx) take(dest interface{}, query string, arg string) (bool, error) {
	err := t.db.Where(query, arg).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Wrap(apperr.KindRepository, err, "lookup failed")
	}
	return true, nil
}

func (t gormTx) save(row interface{}) error {
	if err := t.db.Save(row).Error; err != nil {
		return apperr.Wrap(apperr.KindRepository, err, "save failed")
	}
	return nil
}

func (t gormTx) delete(model interface{}, id string) error {
	if err := t.db.Where("id = ?", id).Delete(model).Error; err != nil {
		return apperr.Wrap(apperr.KindRepository, err, "delete failed")
	}
	return nil
}

type gormRooms gormTx

func (r gormRooms) find(query, arg string) (*entities.WaitingRoom, error) {
	var row WaitingRoomRow
	found, err := gormTx(r).take(&row, query, arg)
	if err != nil || !found {
		return nil, err
	}
	return entities.RestoreWaitingRoom(row.Data.Data()), nil
}

func (r gormRooms) FindByID(id entities.GameID) (*entities.WaitingRoom, error) {
	return r.find("id = ?", string(id))
}

func (r gormRooms) FindBySecret(secret entities.ShortSecret) (*entities.WaitingRoom, error) {
	return r.find("secret = ?", string(secret))
}

func (r gormRooms) Save(room *entities.WaitingRoom) error {
	return gormTx(r).save(&WaitingRoomRow{
		ID:     string(room.ID()),
		Secret: string(room.DangerouslySecret()),
		Data:   datatypes.NewJSONType(room.Snapshot()),
	})
}

func (r gormRooms) Delete(id entities.GameID) error {
	return gormTx(r).delete(&WaitingRoomRow{}, string(id))
}

type gormGames gormTx

func (r gormGames) FindByID(id entities.GameID) (*entities.Game, error) {
	var row GameRow
	found, err := gormTx(r).take(&row, "id = ?", string(id))
	if err != nil || !found {
		return nil, err
	}
	return entities.RestoreGame(row.Data.Data()), nil
}

func (r gormGames) Save(game *entities.Game) error {
	return gormTx(r).save(&GameRow{ID: string(game.ID()), Data: datatypes.NewJSONType(game.Snapshot())})
}

func (r gormGames) Delete(id entities.GameID) error {
	return gormTx(r).delete(&GameRow{}, string(id))
}

type gormPlayers gormTx

func (r gormPlayers) FindByID(id entities.PlayerID) (*entities.Player, error) {
	var row PlayerRow
	found, err := gormTx(r).take(&row, "id = ?", string(id))
	if err != nil || !found {
		return nil, err
	}
	return entities.RestorePlayer(row.Data.Data()), nil
}

func (r gormPlayers) Save(player *entities.Player) error {
	return gormTx(r).save(&PlayerRow{ID: string(player.ID()), Data: datatypes.NewJSONType(player.Snapshot())})
}

func (r gormPlayers) Delete(id entities.PlayerID) error {
	return gormTx(r).delete(&PlayerRow{}, string(id))
}

type gormTelepresences gormTx

func (r gormTelepresences) FindByID(id entities.PlayerID) (*entities.HandTelepresence, error) {
	var row HandTelepresenceRow
	found, err := gormTx(r).take(&row, "id = ?", string(id))
	if err != nil || !found {
		return nil, err
	}
	return entities.RestoreHandTelepresence(row.Data.Data()), nil
}

func (r gormTelepresences) Save(telepresence *entities.HandTelepresence) error {
	return gormTx(r).save(&HandTelepresenceRow{
		ID:   string(telepresence.ID()),
		Data: datatypes.NewJSONType(telepresence.Snapshot()),
	})
}

func (r gormTelepresences) Delete(id entities.PlayerID) error {
	return gormTx(r).delete(&HandTelepresenceRow{}, string(id))
}
