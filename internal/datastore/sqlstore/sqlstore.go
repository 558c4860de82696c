package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Makepad-fr/amped/internal/datastore"
	"github.com/Makepad-fr/amped/internal/model"
)

// Store keeps todos in a local SQLite file. mu orders each mutation with the
// snapshot it publishes, so subscribers never see state go backwards.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	hub *datastore.Hub
}

var _ datastore.Service = (*Store)(nil)

// Open opens (and migrates) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, hub: datastore.NewHub()}, nil
}

func (s *Store) Observe(ctx context.Context) (*datastore.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.hub.Subscribe(datastore.Snapshot{Items: items, IsSynced: true})
}

func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM todos ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()
	out := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) Save(ctx context.Context, item model.Item) (model.Item, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO todos(id, name, description, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 description=excluded.description,
	 updated_at=excluded.updated_at;
	`, item.ID, item.Name, item.Description, now, now)
	if err != nil {
		return model.Item{}, fmt.Errorf("save todo: %w", err)
	}
	s.publish(ctx)
	return item, nil
}

func (s *Store) Query(ctx context.Context, id string) (*model.Item, error) {
	var it model.Item
	err := s.db.QueryRowContext(ctx, `SELECT id, name, description FROM todos WHERE id = ?`, id).
		Scan(&it.ID, &it.Name, &it.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query todo: %w", err)
	}
	return &it, nil
}

func (s *Store) Delete(ctx context.Context, item model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, item.ID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if n == 0 {
		return datastore.ErrNotFound
	}
	s.publish(ctx)
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM todos`); err != nil {
		return fmt.Errorf("clear todos: %w", err)
	}
	s.hub.Publish(datastore.Snapshot{Items: []model.Item{}, IsSynced: true})
	return nil
}

func (s *Store) Close() error {
	s.hub.Close()
	return s.db.Close()
}

// publish re-reads the table so subscribers always see committed state.
// Callers hold s.mu.
func (s *Store) publish(ctx context.Context) {
	items, err := s.List(ctx)
	if err != nil {
		// the write is committed; the next successful mutation republishes
		return
	}
	s.hub.Publish(datastore.Snapshot{Items: items, IsSynced: true})
}
