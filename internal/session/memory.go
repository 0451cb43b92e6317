package session

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const shardCount = 16

type memoryEntry struct {
	sess      *Session
	expiresAt time.Time
}

type memoryShard struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// MemoryDriver is a sharded in-process driver. Sharding keeps one busy
// conversation from blocking unrelated users.
type MemoryDriver struct {
	shards [shardCount]*memoryShard
}

// NewMemoryDriver creates an empty in-process session driver.
func NewMemoryDriver() *MemoryDriver {
	d := &MemoryDriver{}
	for i := range d.shards {
		d.shards[i] = &memoryShard{entries: make(map[string]memoryEntry)}
	}
	return d
}

var (
	_ Driver      = (*MemoryDriver)(nil)
	_ Snapshotter = (*MemoryDriver)(nil)
)

func (d *MemoryDriver) shard(key string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return d.shards[h.Sum32()%shardCount]
}

func (d *MemoryDriver) Get(ctx context.Context, key string) (*Session, error) {
	shard := d.shard(key)
	shard.mu.RLock()
	entry, ok := shard.entries[key]
	shard.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		shard.mu.Lock()
		delete(shard.entries, key)
		shard.mu.Unlock()
		return nil, nil
	}

	// Copy through JSON so callers never share mutable state with the map.
	raw, err := json.Marshal(entry.sess)
	if err != nil {
		return nil, err
	}
	var copied Session
	if err := json.Unmarshal(raw, &copied); err != nil {
		return nil, err
	}
	return &copied, nil
}

func (d *MemoryDriver) Put(ctx context.Context, key string, sess *Session, ttl time.Duration) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	var copied Session
	if err := json.Unmarshal(raw, &copied); err != nil {
		return err
	}

	shard := d.shard(key)
	shard.mu.Lock()
	shard.entries[key] = memoryEntry{sess: &copied, expiresAt: time.Now().Add(ttl)}
	shard.mu.Unlock()
	return nil
}

func (d *MemoryDriver) Delete(ctx context.Context, key string) error {
	shard := d.shard(key)
	shard.mu.Lock()
	delete(shard.entries, key)
	shard.mu.Unlock()
	return nil
}

// PruneExpired drops idle entries. Called by the periodic maintenance task.
func (d *MemoryDriver) PruneExpired() int {
	now := time.Now()
	pruned := 0
	for _, shard := range d.shards {
		shard.mu.Lock()
		for key, entry := range shard.entries {
			if now.After(entry.expiresAt) {
				delete(shard.entries, key)
				pruned++
			}
		}
		shard.mu.Unlock()
	}
	return pruned
}

// Snapshot writes every live session to path via a temp file and rename,
// so a crash mid-write never corrupts the previous snapshot.
func (d *MemoryDriver) Snapshot(path string) error {
	type snapshotEntry struct {
		Session   *Session  `json:"session"`
		ExpiresAt time.Time `json:"expiresAt"`
	}

	dump := make(map[string]snapshotEntry)
	now := time.Now()
	for _, shard := range d.shards {
		shard.mu.RLock()
		for key, entry := range shard.entries {
			if now.After(entry.expiresAt) {
				continue
			}
			dump[key] = snapshotEntry{Session: entry.sess, ExpiresAt: entry.expiresAt}
		}
		shard.mu.RUnlock()
	}

	raw, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Restore loads a snapshot written by Snapshot. Entries already past
// their expiry are skipped. A missing file is not an error.
func (d *MemoryDriver) Restore(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	type snapshotEntry struct {
		Session   *Session  `json:"session"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	var dump map[string]snapshotEntry
	if err := json.Unmarshal(raw, &dump); err != nil {
		return err
	}

	now := time.Now()
	for key, entry := range dump {
		if entry.Session == nil || now.After(entry.ExpiresAt) {
			continue
		}
		shard := d.shard(key)
		shard.mu.Lock()
		shard.entries[key] = memoryEntry{sess: entry.Session, expiresAt: entry.ExpiresAt}
		shard.mu.Unlock()
	}
	return nil
}
