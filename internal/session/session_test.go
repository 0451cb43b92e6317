package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"shrimpquote_backend/internal/pricing"
)

func sampleQuote(t *testing.T) pricing.Quote {
	t.Helper()
	factor := 0.80
	quote, err := pricing.Compute(pricing.Inputs{
		Product:       "HLSO",
		Size:          "16/20",
		BaseKg:        11.45,
		FixedCostKg:   0.25,
		GlazingFactor: &factor,
	})
	if err != nil {
		t.Fatalf("sample quote: %v", err)
	}
	return quote
}

func TestClear_PreservesLanguageAndLastQuote(t *testing.T) {
	sess := New("+593999000111")
	sess.PreferredLanguage = "en"
	sess.LastQuote = []pricing.Quote{sampleQuote(t)}
	sess.State = StateAwaitingFreight
	sess.Pending = AwaitingFreightData{Query: PriceQuery{Product: "HLSO", Size: "16/20"}}
	sess.AppendHistory("user", "hola")

	sess.Clear()

	if sess.State != StateIdle {
		t.Errorf("state = %v, want idle", sess.State)
	}
	if sess.Pending != nil {
		t.Errorf("pending = %v, want nil", sess.Pending)
	}
	if len(sess.History) != 0 {
		t.Errorf("history not cleared: %v", sess.History)
	}
	if sess.PreferredLanguage != "en" {
		t.Errorf("preferred language lost: %q", sess.PreferredLanguage)
	}
	if len(sess.LastQuote) != 1 {
		t.Errorf("last quote lost")
	}
}

func TestAppendHistory_CapsAtTwenty(t *testing.T) {
	sess := New("key")
	for i := 0; i < 30; i++ {
		sess.AppendHistory("user", "message")
	}
	if len(sess.History) != 20 {
		t.Fatalf("history length = %d, want 20", len(sess.History))
	}
}

func TestSessionJSON_RoundTripsPendingVariants(t *testing.T) {
	twenty := 20
	freight := 0.25
	variants := []PendingData{
		AwaitingGlazingData{Query: PriceQuery{Product: "HLSO", Size: "16/20", FreightRequested: true}},
		AwaitingFreightData{Query: PriceQuery{Product: "HOSO", Size: "30/40", GlazingPercentage: &twenty}},
		AwaitingMultiGlazingData{Items: []PriceQuery{{Product: "HOSO", Size: "16/20"}, {Product: "HOSO", Size: "21/25"}}},
		AwaitingMultiFreightData{Items: []PriceQuery{{Product: "HOSO", Size: "16/20"}}, GlazingPercentage: 20},
		AwaitingClarificationData{WholeSizes: []string{"30/40"}, TailSizes: []string{"40/50"}, FreightValue: &freight, DDP: true},
		AwaitingSelectionData{Options: []string{"16/20", "21/25"}, Product: "HLSO"},
	}

	driver := NewMemoryDriver()
	ctx := context.Background()

	for _, pending := range variants {
		sess := New("key")
		sess.State = StateAwaitingGlazing
		sess.Pending = pending

		if err := driver.Put(ctx, sess.Key, sess, time.Minute); err != nil {
			t.Fatalf("put: %v", err)
		}
		loaded, err := driver.Get(ctx, sess.Key)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if loaded.Pending == nil {
			t.Fatalf("pending lost for %T", pending)
		}
		if loaded.Pending.pendingKind() != pending.pendingKind() {
			t.Errorf("pending kind = %q, want %q", loaded.Pending.pendingKind(), pending.pendingKind())
		}
	}
}

func TestStore_ExpiredSessionIsClearedNotResumed(t *testing.T) {
	driver := NewMemoryDriver()
	store := NewStore(driver, 5*time.Minute, nil)
	ctx := context.Background()

	sess := New("key")
	sess.State = StateAwaitingFreight
	sess.PreferredLanguage = "es"
	sess.LastQuote = []pricing.Quote{sampleQuote(t)}
	sess.LastActivity = time.Now().UTC().Add(-10 * time.Minute)
	// Driver TTL is longer than the idle window so the entry still exists.
	if err := driver.Put(ctx, sess.Key, sess, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	loaded, err := store.Get(ctx, "key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.State != StateIdle {
		t.Errorf("state = %v, want idle after expiry", loaded.State)
	}
	if loaded.PreferredLanguage != "es" || len(loaded.LastQuote) != 1 {
		t.Errorf("expiry must preserve language and last quote, got %+v", loaded)
	}
}

func TestMemoryDriver_SnapshotAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	ctx := context.Background()

	driver := NewMemoryDriver()
	sess := New("+593999000111")
	sess.State = StateAwaitingMultiFreight
	sess.Pending = AwaitingMultiFreightData{
		Items:             []PriceQuery{{Product: "HOSO", Size: "16/20"}},
		GlazingPercentage: 10,
	}
	if err := driver.Put(ctx, sess.Key, sess, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := driver.Snapshot(path); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	restored := NewMemoryDriver()
	if err := restored.Restore(path); err != nil {
		t.Fatalf("restore: %v", err)
	}
	loaded, err := restored.Get(ctx, sess.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded == nil {
		t.Fatal("session missing after restore")
	}
	data, ok := loaded.Pending.(AwaitingMultiFreightData)
	if !ok {
		t.Fatalf("pending type = %T, want AwaitingMultiFreightData", loaded.Pending)
	}
	if data.GlazingPercentage != 10 || len(data.Items) != 1 {
		t.Errorf("pending data corrupted: %+v", data)
	}
}

func TestMemoryDriver_RestoreMissingFileIsNoop(t *testing.T) {
	driver := NewMemoryDriver()
	if err := driver.Restore(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Fatalf("missing snapshot must not error, got %v", err)
	}
}

func TestRedisDriver_RoundTrip(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	driver := NewRedisDriver(client)
	ctx := context.Background()

	sess := New("+593999000111")
	sess.State = StateAwaitingGlazing
	sess.Pending = AwaitingGlazingData{Query: PriceQuery{Product: "HLSO", Size: "16/20"}}

	if err := driver.Put(ctx, sess.Key, sess, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	loaded, err := driver.Get(ctx, sess.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded == nil || loaded.State != StateAwaitingGlazing {
		t.Fatalf("loaded = %+v", loaded)
	}
	if _, ok := loaded.Pending.(AwaitingGlazingData); !ok {
		t.Fatalf("pending type = %T", loaded.Pending)
	}

	server.FastForward(2 * time.Minute)
	expired, err := driver.Get(ctx, sess.Key)
	if err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if expired != nil {
		t.Fatal("session must expire with the Redis TTL")
	}
}
