package session

import (
	"context"
	"time"

	"shrimpquote_backend/platform/logger"
)

// Driver is the storage backend for sessions. Get returns (nil, nil) for
// an absent key; expiry is enforced by the Store, drivers only persist.
type Driver interface {
	Get(ctx context.Context, key string) (*Session, error)
	Put(ctx context.Context, key string, sess *Session, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Snapshotter is implemented by drivers that support file snapshots. The
// Redis driver does not; Redis provides its own durability.
type Snapshotter interface {
	Snapshot(path string) error
	Restore(path string) error
}

// Store is the session cache used by the conversation engine. Many users'
// requests hit it concurrently; the drivers guarantee per-key isolation.
type Store struct {
	driver Driver
	ttl    time.Duration
	log    *logger.Logger
}

// NewStore wraps a driver with TTL enforcement.
func NewStore(driver Driver, ttl time.Duration, log *logger.Logger) *Store {
	return &Store{driver: driver, ttl: ttl, log: log}
}

// Get loads a user's session, creating a fresh one when none exists or
// the stored one idled past the TTL. An expired session is not silently
// resumed; its language preference and last quote still carry over, same
// as an explicit clear.
func (s *Store) Get(ctx context.Context, key string) (*Session, error) {
	sess, err := s.driver.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return New(key), nil
	}
	if sess.Expired(s.ttl, time.Now().UTC()) {
		sess.Clear()
	}
	return sess, nil
}

// Save persists the session and refreshes its activity timestamp.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	sess.Touch()
	return s.driver.Put(ctx, sess.Key, sess, s.ttl)
}

// Delete removes a session entirely. Conversation resets use
// Session.Clear followed by Save instead, to honor the preservation
// invariant.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.driver.Delete(ctx, key)
}

// SnapshotTo writes a point-in-time snapshot if the driver supports it.
// Fire-and-forget: callers log and move on.
func (s *Store) SnapshotTo(path string) error {
	snapshotter, ok := s.driver.(Snapshotter)
	if !ok || path == "" {
		return nil
	}
	return snapshotter.Snapshot(path)
}

// RestoreFrom loads a previous snapshot if the driver supports it.
func (s *Store) RestoreFrom(path string) error {
	snapshotter, ok := s.driver.(Snapshotter)
	if !ok || path == "" {
		return nil
	}
	return snapshotter.Restore(path)
}
