package database

import (
	"context"
	"github.com/hashicorp/go-memdb"
	"old-maid-server/internal/apperr"
	"old-maid-server/internal/entities"
)

const (
	tableWaitingRooms      = "waiting_rooms"
	tableGames             = "games"
	tablePlayers           = "players"
	tableHandTelepresences = "hand_telepresences"
)

type roomRow struct {
	ID     string
	Secret string
	Room   *entities.WaitingRoom
}

type gameRow struct {
	ID   string
	Game *entities.Game
}

type playerRow struct {
	ID     string
	Player *entities.Player
}

type telepresenceRow struct {
	ID           string
	Telepresence *entities.HandTelepresence
}

func idIndex() *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:    "id",
		Unique:  true,
		Indexer: &memdb.StringFieldIndex{Field: "ID"},
	}
}

var memorySchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tableWaitingRooms: {
			Name: tableWaitingRooms,
			Indexes: map[string]*memdb.IndexSchema{
				"id": idIndex(),
				"secret": {
					Name:    "secret",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Secret"},
				},
			},
		},
		tableGames: {
			Name:    tableGames,
			Indexes: map[string]*memdb.IndexSchema{"id": idIndex()},
		},
		tablePlayers: {
			Name:    tablePlayers,
			Indexes: map[string]*memdb.IndexSchema{"id": idIndex()},
		},
		tableHandTelepresences: {
			Name:    tableHandTelepresences,
			Indexes: map[string]*memdb.IndexSchema{"id": idIndex()},
		},
	},
}

// MemoryStore keeps entities in a go-memdb database. Entities are immutable,
// so rows hold them by pointer.
type MemoryStore struct {
	db *memdb.MemDB
}

func NewMemoryStore() (*MemoryStore, error) {
	db, err := memdb.NewMemDB(memorySchema)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{db: db}, nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := s.db.Txn(false)
	defer txn.Abort()
	return fn(memoryTx{txn: txn})
}

// Update holds go-memdb's single writer lock for the duration of fn.
func (s *MemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := fn(memoryTx{txn: txn}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

type memoryTx struct {
	txn *memdb.Txn
}

func (t memoryTx) WaitingRooms() WaitingRoomRepository   { return memoryRooms(t) }
func (t memoryTx) Games() GameRepository                 { return memoryGames(t) }
func (t memoryTx) Players() PlayerRepository             { return memoryPlayers(t) }
func (t memoryTx) HandTelepresences() HandTelepresenceRepository {
	return memoryTelepresences(t)
}

func (t memoryTx) first(table, index, value string) (interface{}, error) {
	raw, err := t.txn.First(table, index, value)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRepository, err, "lookup in "+table)
	}
	return raw, nil
}

func (t memoryTx) insert(table string, row interface{}) error {
	if err := t.txn.Insert(table, row); err != nil {
		return apperr.Wrap(apperr.KindRepository, err, "insert into "+table)
	}
	return nil
}

func (t memoryTx) delete(table, id string) error {
	if _, err := t.txn.DeleteAll(table, "id", id); err != nil {
		return apperr.Wrap(apperr.KindRepository, err, "delete from "+table)
	}
	return nil
}

type memoryRooms memoryTx

func (r memoryRooms) find(index, value string) (*entities.WaitingRoom, error) {
	raw, err := memoryTx(r).first(tableWaitingRooms, index, value)
	if err != nil || raw == nil {
		return nil, err
	}
	return raw.(*roomRow).Room, nil
}

func (r memoryRooms) FindByID(id entities.GameID) (*entities.WaitingRoom, error) {
	return r.find("id", string(id))
}

func (r memoryRooms) FindBySecret(secret entities.ShortSecret) (*entities.WaitingRoom, error) {
	return r.find("secret", string(secret))
}

func (r memoryRooms) Save(room *entities.WaitingRoom) error {
	return memoryTx(r).insert(tableWaitingRooms, &roomRow{
		ID:     string(room.ID()),
		Secret: string(room.DangerouslySecret()),
		Room:   room,
	})
}

func (r memoryRooms) Delete(id entities.GameID) error {
	return memoryTx(r).delete(tableWaitingRooms, string(id))
}

type memoryGames memoryTx

func (r memoryGames) FindByID(id entities.GameID) (*entities.Game, error) {
	raw, err := memoryTx(r).first(tableGames, "id", string(id))
	if err != nil || raw == nil {
		return nil, err
	}
	return raw.(*gameRow).Game, nil
}

func (r memoryGames) Save(game *entities.Game) error {
	return memoryTx(r).insert(tableGames, &gameRow{ID: string(game.ID()), Game: game})
}

func (r memoryGames) Delete(id entities.GameID) error {
	return memoryTx(r).delete(tableGames, string(id))
}

type memoryPlayers memoryTx

func (r memoryPlayers) FindByID(id entities.PlayerID) (*entities.Player, error) {
	raw, err := memoryTx(r).first(tablePlayers, "id", string(id))
	if err != nil || raw == nil {
		return nil, err
	}
	return raw.(*playerRow).Player, nil
}

func (r memoryPlayers) Save(player *entities.Player) error {
	return memoryTx(r).insert(tablePlayers, &playerRow{ID: string(player.ID()), Player: player})
}

func (r memoryPlayers) Delete(id entities.PlayerID) error {
	return memoryTx(r).delete(tablePlayers, string(id))
}

type memoryTelepresences memoryTx

func (r memoryTelepresences) FindByID(id entities.PlayerID) (*entities.HandTelepresence, error) {
	raw, err := memoryTx(r).first(tableHandTelepresences, "id", string(id))
	if err != nil || raw == nil {
		return nil, err
	}
	return raw.(*telepresenceRow).Telepresence, nil
}

func (r memoryTelepresences) Save(telepresence *entities.HandTelepresence) error {
	return memoryTx(r).insert(tableHandTelepresences, &telepresenceRow{
		ID:           string(telepresence.ID()),
		Telepresence: telepresence,
	})
}

func (r memoryTelepresences) Delete(id entities.PlayerID) error {
	return memoryTx(r).delete(tableHandTelepresences, string(id))
}
