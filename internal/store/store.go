// Package store owns the match list. Every mutation persists the whole list
// as one JSON blob before it becomes visible.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/cschnabel/scorekeeper/internal/model"
)

// BlobKey is the key the match list is persisted under.
const BlobKey = "matches"

// maxWriteAttempts bounds how often a mutation is replayed when another
// process writes between our read and our write.
const maxWriteAttempts = 3

var (
	ErrIndexOutOfRange = errors.New("match index out of range")
	ErrStaleSession    = errors.New("match list changed since the session was opened")
	ErrConflict        = errors.New("match list keeps changing under concurrent writers")
)

// Blobs is the persistence the store needs; *db.Store satisfies it. A key
// that was never written has version 0. PutBlob writes only when the stored
// version still equals version, and reports ok == false otherwise.
type Blobs interface {
	GetBlob(ctx context.Context, key string) (value string, version int64, err error)
	PutBlob(ctx context.Context, key, value string, version int64) (next int64, ok bool, err error)
}

// Store is the single owner of the match list. Its version is the persisted
// blob version, so it survives restarts and is shared by every process
// opening the same database.
type Store struct {
	blobs Blobs

	mu       sync.Mutex
	matches  []model.Match
	version  uint64
	handlers []func(version uint64)
}

func New(blobs Blobs) *Store {
	return &Store{blobs: blobs}
}

// Snapshot is a point-in-time copy of the list.
type Snapshot struct {
	Version uint64        `json:"version"`
	Matches []model.Match `json:"matches"`
}

// Load replaces the in-memory list with the persisted one. Missing or
// malformed data loads as an empty list; only a failing blob store is an
// error.
func (s *Store) Load(ctx context.Context) error {
	if err := s.sync(ctx, true); err != nil {
		return fmt.Errorf("load matches: %w", err)
	}
	return nil
}

// Refresh picks up writes made through another Store on the same database.
// Subscribers are notified only when the persisted version moved.
func (s *Store) Refresh(ctx context.Context) error {
	if err := s.sync(ctx, false); err != nil {
		return fmt.Errorf("refresh matches: %w", err)
	}
	return nil
}

func (s *Store) sync(ctx context.Context, force bool) error {
	s.mu.Lock()
	changed, err := s.refreshLocked(ctx, force)
	version := s.version
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if changed {
		s.notify(version)
	}
	return nil
}

// refreshLocked rereads the blob when its version differs from ours.
func (s *Store) refreshLocked(ctx context.Context, force bool) (bool, error) {
	raw, version, err := s.blobs.GetBlob(ctx, BlobKey)
	if err != nil {
		return false, err
	}
	if !force && uint64(version) == s.version {
		return false, nil
	}

	matches := []model.Match{}
	if version > 0 {
		if err := json.Unmarshal([]byte(raw), &matches); err != nil || matches == nil {
			log.Printf("stored matches unreadable, starting empty: %v", err)
			matches = []model.Match{}
		}
	}
	s.matches = matches
	s.version = uint64(version)
	log.Printf("loaded matches: count=%d version=%d", len(matches), version)
	return true, nil
}

// Subscribe registers fn to run after every committed mutation.
func (s *Store) Subscribe(fn func(version uint64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Version: s.version, Matches: cloneMatches(s.matches)}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Add appends a record.
func (s *Store) Add(ctx context.Context, m model.Match) error {
	return s.mutate(ctx, func(cur []model.Match) ([]model.Match, error) {
		return append(cur, m.Clone()), nil
	})
}

// Replace overwrites the record at index.
func (s *Store) Replace(ctx context.Context, index int, m model.Match) error {
	return s.mutate(ctx, func(cur []model.Match) ([]model.Match, error) {
		if index < 0 || index >= len(cur) {
			return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		cur[index] = m.Clone()
		return cur, nil
	})
}

// RemoveAt deletes the record at index and shifts the rest down. Indexes
// taken before the call no longer address the same records.
func (s *Store) RemoveAt(ctx context.Context, index int) error {
	return s.mutate(ctx, func(cur []model.Match) ([]model.Match, error) {
		if index < 0 || index >= len(cur) {
			return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		return append(cur[:index], cur[index+1:]...), nil
	})
}

// ReplaceAll swaps in a whole new list in one step.
func (s *Store) ReplaceAll(ctx context.Context, matches []model.Match) error {
	return s.mutate(ctx, func([]model.Match) ([]model.Match, error) {
		return cloneMatches(matches), nil
	})
}

// mutate applies fn to a copy of the latest persisted list, persists the
// result, and only then commits it. On any error nothing is written.
func (s *Store) mutate(ctx context.Context, fn func([]model.Match) ([]model.Match, error)) error {
	s.mu.Lock()
	before := s.version
	err := s.mutateLocked(ctx, fn)
	version := s.version
	s.mu.Unlock()
	if version != before {
		s.notify(version)
	}
	return err
}

func (s *Store) mutateLocked(ctx context.Context, fn func([]model.Match) ([]model.Match, error)) error {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		if _, err := s.refreshLocked(ctx, false); err != nil {
			return fmt.Errorf("read matches: %w", err)
		}

		next, err := fn(cloneMatches(s.matches))
		if err != nil {
			return err
		}
		if next == nil {
			next = []model.Match{}
		}

		encoded, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode matches: %w", err)
		}
		version, ok, err := s.blobs.PutBlob(ctx, BlobKey, string(encoded), int64(s.version))
		if err != nil {
			return fmt.Errorf("persist matches: %w", err)
		}
		if !ok {
			continue
		}

		s.matches = next
		s.version = uint64(version)
		return nil
	}
	return ErrConflict
}

func (s *Store) notify(version uint64) {
	s.mu.Lock()
	handlers := append([]func(uint64){}, s.handlers...)
	s.mu.Unlock()
	for _, fn := range handlers {
		fn(version)
	}
}

func cloneMatches(in []model.Match) []model.Match {
	out := make([]model.Match, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}
