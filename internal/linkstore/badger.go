package linkstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/albumduel/albumduel-server/internal/domain"
)

// BadgerStore keeps links in an embedded BadgerDB. Entries carry a badger
// TTL and are also checked against ExpiresAt on read, since badger expiry
// has one second resolution.
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

// OpenBadger opens (or creates) a BadgerDB at dir. An empty dir opens an
// in-memory database.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger link store: %w", err)
	}
	return &BadgerStore{db: db, now: time.Now}, nil
}

// Put stores link for ttl, replacing any existing link for the same
// user and provider.
func (s *BadgerStore) Put(_ context.Context, link *domain.ProviderLink, ttl time.Duration) error {
	if err := checkPut(link, ttl); err != nil {
		return err
	}
	link.ExpiresAt = link.LinkedAt.Add(ttl)

	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("marshal link: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(linkKey(link.UserID, link.Provider)), data).WithTTL(ttl)
		return txn.SetEntry(e)
	})
}

// Get returns the live link for user and provider.
func (s *BadgerStore) Get(_ context.Context, userID, provider string) (*domain.ProviderLink, error) {
	var link domain.ProviderLink
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(linkKey(userID, provider)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get link: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &link)
		})
	})
	if err != nil {
		return nil, err
	}
	if !link.ExpiresAt.After(s.now()) {
		return nil, ErrNotFound
	}
	return &link, nil
}

// Delete removes the link. Deleting a missing link is a no-op.
func (s *BadgerStore) Delete(_ context.Context, userID, provider string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(linkKey(userID, provider)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Ping reports whether the database is open.
func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger link store is closed")
	}
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
