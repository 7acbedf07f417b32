// Package storage provides persistent Store backends for the session
// package. BunStore is the durable analogue of browser local storage: one
// key/value row per entry, scoped by an optional per-account namespace.
package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	session "github.com/thappy/go-session"
)

// Entry is one persisted key/value pair.
type Entry struct {
	bun.BaseModel `bun:"table:session_entries,alias:se"`

	Key       string    `bun:"key,pk" json:"key"`
	Value     string    `bun:"value,notnull" json:"value"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// BunStore persists session state in sqlite via bun. Read failures are
// treated as absent and write failures are logged, matching the Store
// contract: callers never see an error.
type BunStore struct {
	db        *bun.DB
	namespace string
	logger    session.Logger
	now       func() time.Time
}

// Option customizes BunStore construction.
type Option func(*BunStore)

// WithNamespace prefixes all keys, keeping the persisted state of
// different accounts apart in a shared database file.
func WithNamespace(ns string) Option {
	return func(s *BunStore) {
		s.namespace = ns
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger session.Logger) Option {
	return func(s *BunStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(s *BunStore) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (creating if needed) a sqlite-backed bun DB at path. Use
// ":memory:" for an ephemeral database.
func Open(path string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// NewBunStore returns a BunStore over db. Call Init before first use.
func NewBunStore(db *bun.DB, opts ...Option) *BunStore {
	s := &BunStore{
		db:     db,
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Init creates the backing table if it does not exist.
func (s *BunStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*Entry)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Get implements session.Store.
func (s *BunStore) Get(ctx context.Context, key string) (string, bool) {
	entry := &Entry{}
	err := s.db.NewSelect().
		Model(entry).
		Where("key = ?", s.scoped(key)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.Warn("bun store read failed for %q, treating as absent: %v", key, err)
		}
		return "", false
	}

	return entry.Value, true
}

// Set implements session.Store.
func (s *BunStore) Set(ctx context.Context, key, value string) {
	entry := &Entry{
		Key:       s.scoped(key),
		Value:     value,
		UpdatedAt: s.now(),
	}

	_, err := s.db.NewInsert().
		Model(entry).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		s.logger.Error("bun store write failed for %q: %v", key, err)
	}
}

// Remove implements session.Store.
func (s *BunStore) Remove(ctx context.Context, key string) {
	_, err := s.db.NewDelete().
		Model((*Entry)(nil)).
		Where("key = ?", s.scoped(key)).
		Exec(ctx)
	if err != nil {
		s.logger.Error("bun store delete failed for %q: %v", key, err)
	}
}

func (s *BunStore) scoped(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}
