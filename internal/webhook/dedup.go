package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"shrimpquote_backend/platform/logger"
)

const dedupKeyPrefix = "dedup:msg:"

// Deduper filters redundant deliveries of the same transport message. The
// gateway retries on slow responses, so every message ID is remembered for a
// short window. Redis backs the set when available so replicas agree on what
// was seen; otherwise an in-process map serves a single instance. This is a
// courtesy filter, not a correctness guarantee.
type Deduper struct {
	redis  *redis.Client
	window time.Duration
	log    *logger.Logger

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewDeduper(redisClient *redis.Client, window time.Duration, log *logger.Logger) *Deduper {
	return &Deduper{
		redis:  redisClient,
		window: window,
		log:    log,
		seen:   make(map[string]time.Time),
	}
}

// Seen records the message ID and reports whether it was already delivered
// within the window. A Redis failure falls back to the local set rather than
// dropping the message.
func (d *Deduper) Seen(ctx context.Context, messageID string) bool {
	if messageID == "" {
		return false
	}

	if d.redis != nil {
		fresh, err := d.redis.SetNX(ctx, dedupKeyPrefix+messageID, 1, d.window).Result()
		if err == nil {
			return !fresh
		}
		d.log.CollaboratorError("redis", err)
	}

	return d.seenLocal(messageID)
}

func (d *Deduper) seenLocal(messageID string) bool {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	// Prune lazily on each check instead of running a sweeper.
	for id, at := range d.seen {
		if now.Sub(at) > d.window {
			delete(d.seen, id)
		}
	}

	if at, ok := d.seen[messageID]; ok && now.Sub(at) <= d.window {
		return true
	}
	d.seen[messageID] = now
	return false
}
