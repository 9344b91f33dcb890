package store

import (
	"context"
	"fmt"

	"github.com/cschnabel/scorekeeper/internal/derive"
	"github.com/cschnabel/scorekeeper/internal/model"
)

// Session is the edit cursor of one open form: either a new record or an
// existing index as of a store version.
type Session struct {
	Index   int    `json:"index"`
	Editing bool   `json:"editing"`
	Version uint64 `json:"version"`
}

// NewSession starts a form for a new record.
func (s *Store) NewSession() Session {
	return Session{Index: -1}
}

// Edit opens the record at index and returns it as a draft for the form.
func (s *Store) Edit(index int) (Session, model.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.matches) {
		return Session{}, model.Draft{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	sess := Session{Index: index, Editing: true, Version: s.version}
	return sess, model.DraftFromMatch(s.matches[index]), nil
}

// Save builds a record from the draft and adds it, or replaces the edited
// record. Validation failures leave the list untouched.
func (s *Store) Save(ctx context.Context, sess Session, d model.Draft) (model.Match, error) {
	m, err := derive.BuildMatch(d)
	if err != nil {
		return model.Match{}, err
	}

	if !sess.Editing {
		return m, s.Add(ctx, m)
	}
	err = s.mutate(ctx, func(cur []model.Match) ([]model.Match, error) {
		if err := s.checkLocked(sess, len(cur)); err != nil {
			return nil, err
		}
		cur[sess.Index] = m
		return cur, nil
	})
	if err != nil {
		return model.Match{}, err
	}
	return m, nil
}

// Delete removes the edited record. A new-record session has nothing to
// delete. A session can delete at most once: afterwards it is stale.
func (s *Store) Delete(ctx context.Context, sess Session) error {
	if !sess.Editing {
		return nil
	}
	return s.mutate(ctx, func(cur []model.Match) ([]model.Match, error) {
		if err := s.checkLocked(sess, len(cur)); err != nil {
			return nil, err
		}
		return append(cur[:sess.Index], cur[sess.Index+1:]...), nil
	})
}

func (s *Store) checkLocked(sess Session, n int) error {
	if sess.Version != s.version {
		return fmt.Errorf("%w: opened at %d, now %d", ErrStaleSession, sess.Version, s.version)
	}
	if sess.Index < 0 || sess.Index >= n {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, sess.Index)
	}
	return nil
}
