package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"
	"time"

	errs "github.com/carolin-violet/violet-reminder/internal/errors"
	"github.com/carolin-violet/violet-reminder/internal/logging"
)

// LockPolicy controls how long a session waits for a database directory that
// another violet process holds.
type LockPolicy struct {
	Retries int
	Backoff time.Duration
}

// LockError is returned when the directory stayed locked for every attempt.
type LockError struct {
	Path     string
	Attempts int
	Cause    error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("database %s is locked by another process (%d attempts)", e.Path, e.Attempts)
}

func (e *LockError) Unwrap() error {
	return e.Cause
}

// Is matches errs.ErrLockHeld.
func (e *LockError) Is(target error) bool {
	return target == errs.ErrLockHeld
}

// isDirLocked recognizes badger's directory-lock failure. Badger formats the
// flock error into its message, so the errno is not always unwrappable.
func isDirLocked(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EWOULDBLOCK) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Cannot acquire directory lock") ||
		strings.Contains(msg, "Another process is using this Badger database")
}

type opener func(Options) (*DB, error)

// Session opens the database for one unit of work and closes it afterwards,
// so the CLI and the daemon can take turns on the same directory. In-memory
// sessions keep one database for their whole lifetime instead.
type Session struct {
	opts   Options
	policy LockPolicy
	open   opener
	sleep  func(context.Context, time.Duration) error

	mu     sync.Mutex
	shared *DB
}

// NewSession creates a session factory for opts.
func NewSession(opts Options, policy LockPolicy) *Session {
	return &Session{
		opts:   opts,
		policy: policy,
		open:   Open,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// InMemory reports whether the session is backed by a process-local database.
func (s *Session) InMemory() bool {
	return s.opts.InMemory || s.opts.Path == "" || s.opts.Path == MemoryPath
}

// Acquire opens the database, retrying while the directory is locked.
// Callers must Release the returned database.
func (s *Session) Acquire(ctx context.Context) (*DB, error) {
	if s.InMemory() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.shared == nil {
			db, err := s.open(s.opts)
			if err != nil {
				return nil, err
			}
			s.shared = db
		}
		return s.shared, nil
	}

	backoff := s.policy.Backoff
	retry := errs.NewRecoverableError("database busy", errs.ErrLockHeld, s.policy.Retries)

	for {
		db, err := s.open(s.opts)
		if err == nil {
			return db, nil
		}
		if !isDirLocked(err) {
			return nil, err
		}
		if !retry.CanRetry {
			return nil, &LockError{Path: s.opts.Path, Attempts: retry.RetryCount + 1, Cause: err}
		}

		retry.IncrementRetry()
		logging.DebugContext(ctx, "database locked, retrying",
			logging.KeyAttempt, retry.RetryCount,
			"backoff", backoff,
		)
		if err := s.sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
	}
}

// Release closes db unless it is the session's shared in-memory database.
func (s *Session) Release(db *DB) error {
	if db == nil {
		return nil
	}
	s.mu.Lock()
	shared := db == s.shared
	s.mu.Unlock()
	if shared {
		return nil
	}
	return db.Close()
}

// Do opens the database, runs fn and releases it.
func (s *Session) Do(ctx context.Context, fn func(db *DB) error) (err error) {
	db, err := s.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := s.Release(db); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn(db)
}

// Close closes the shared in-memory database, if one was opened.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shared == nil {
		return nil
	}
	err := s.shared.Close()
	s.shared = nil
	return err
}

// Provider hands out a database for the duration of fn.
type Provider interface {
	Do(ctx context.Context, fn func(db *DB) error) error
}

type staticProvider struct {
	db *DB
}

// Static returns a Provider that always uses db and never closes it.
func Static(db *DB) Provider {
	return staticProvider{db: db}
}

func (p staticProvider) Do(_ context.Context, fn func(db *DB) error) error {
	return fn(p.db)
}
