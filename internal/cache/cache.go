// Package cache is the local fallback store: the last known snapshot of
// tickets and users, kept in an embedded badger database.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

const (
	ticketsKey = "ticketboard-tickets"
	usersKey   = "ticketboard-users"
)

// Config controls how the store is opened.
type Config struct {
	// Path is the badger directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM.
	InMemory bool

	// Logger receives badger's internal log and snapshot warnings. The zero
	// value discards them.
	Logger zerolog.Logger
}

// Store holds whole-collection snapshots under fixed keys. Every write
// replaces the full collection.
type Store struct {
	db  *badger.DB
	log zerolog.Logger
}

// badgerLogger adapts zerolog to badger's Logger interface.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Trace().Msgf(format, args...)
}

// Open opens the store described by cfg, creating the directory if needed.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("cache path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("creating cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(badgerLogger{log: cfg.Logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return &Store{db: db, log: cfg.Logger}, nil
}

// OpenInMemory opens a throwaway store.
func OpenInMemory() (*Store, error) {
	return Open(Config{InMemory: true, Logger: zerolog.Nop()})
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadTickets returns the cached tickets. A missing or unreadable snapshot
// yields an empty list, and entries that fail to decode are skipped; only
// storage failures are errors.
func (s *Store) LoadTickets() ([]model.Ticket, error) {
	raw, err := s.get(ticketsKey)
	if err != nil {
		return nil, err
	}
	tickets := []model.Ticket{}
	if raw == nil {
		return tickets, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.log.Warn().Err(err).Str("key", ticketsKey).Msg("discarding malformed ticket snapshot")
		return tickets, nil
	}
	for i, entry := range entries {
		var t model.Ticket
		if err := json.Unmarshal(entry, &t); err != nil {
			s.log.Warn().Err(err).Str("key", ticketsKey).Int("index", i).Msg("skipping malformed cached ticket")
			continue
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// LoadUsers returns the cached users, or the default users when nothing has
// been cached yet.
func (s *Store) LoadUsers() ([]model.User, error) {
	raw, err := s.get(usersKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return model.DefaultUsers(), nil
	}
	var users []model.User
	if err := json.Unmarshal(raw, &users); err != nil {
		s.log.Warn().Err(err).Str("key", usersKey).Msg("discarding malformed user snapshot")
		return model.DefaultUsers(), nil
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// ReplaceTickets overwrites the ticket snapshot.
func (s *Store) ReplaceTickets(tickets []model.Ticket) error {
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	return s.put(ticketsKey, tickets)
}

// ReplaceUsers overwrites the user snapshot.
func (s *Store) ReplaceUsers(users []model.User) error {
	if users == nil {
		users = []model.User{}
	}
	return s.put(usersKey, users)
}

func (s *Store) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// get returns the raw value stored under key, or nil when absent.
func (s *Store) get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return out, nil
}
