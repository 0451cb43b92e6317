package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"shrimpquote_backend/internal/conversation"
	"shrimpquote_backend/internal/intent"
	"shrimpquote_backend/internal/pricing"
	"shrimpquote_backend/internal/session"
	"shrimpquote_backend/platform/httpkit"
	"shrimpquote_backend/platform/logger"
	"shrimpquote_backend/platform/validator"
)

type recordingResponder struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (r *recordingResponder) SendMessage(ctx context.Context, phone, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, text)
	return r.err
}

func (r *recordingResponder) last(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		t.Fatalf("no messages sent")
	}
	return r.messages[len(r.messages)-1]
}

func newTestHandler(t *testing.T, responder Responder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New("development")
	repo := pricing.NewMemoryRepository()
	ctx := context.Background()
	if err := repo.SetFixedCost(ctx, 1.50); err != nil {
		t.Fatalf("seed fixed cost: %v", err)
	}
	if err := repo.UpsertBasePrice(ctx, "HLSO", "16/20", 8.55); err != nil {
		t.Fatalf("seed base price: %v", err)
	}

	sessions := session.NewStore(session.NewMemoryDriver(), 5*time.Minute, log)
	engine := conversation.NewEngine(sessions, repo, intent.New(nil, 0, log), nil, nil, log)

	limiter := httpkit.NewKeyedRateLimiter(rate.Limit(100), 100, log)
	dedup := NewDeduper(nil, 5*time.Minute, log)
	handler := NewHandler(engine, responder, limiter, dedup, validator.New(), log)

	router := gin.New()
	router.POST("/api/v1/webhook/whatsapp", handler.HandleInbound)
	return router
}

func postInbound(t *testing.T, router *gin.Engine, messageID, sender, text string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"sender_id": sender,
		"pushname":  "Test Buyer",
		"message":   map[string]string{"id": messageID, "text": text},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/whatsapp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp map[string]string
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
	}
	return rec, resp["status"]
}

func TestHandleInbound_RepliesToGreeting(t *testing.T) {
	responder := &recordingResponder{}
	router := newTestHandler(t, responder)

	rec, status := postInbound(t, router, "msg-1", "593991234567@s.whatsapp.net", "hola")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if status != statusProcessed {
		t.Fatalf("status = %q, want %q", status, statusProcessed)
	}
	if !strings.Contains(responder.last(t), "Hola") {
		t.Fatalf("expected greeting reply, got %q", responder.last(t))
	}
}

func TestHandleInbound_DuplicateMessageIDIsDropped(t *testing.T) {
	responder := &recordingResponder{}
	router := newTestHandler(t, responder)

	if _, status := postInbound(t, router, "msg-dup", "593991234567@s.whatsapp.net", "hola"); status != statusProcessed {
		t.Fatalf("first delivery status = %q", status)
	}
	if _, status := postInbound(t, router, "msg-dup", "593991234567@s.whatsapp.net", "hola"); status != statusDuplicate {
		t.Fatalf("second delivery status = %q, want %q", status, statusDuplicate)
	}
	responder.mu.Lock()
	sent := len(responder.messages)
	responder.mu.Unlock()
	if sent != 1 {
		t.Fatalf("sent %d messages, want 1", sent)
	}
}

func TestHandleInbound_RateLimitDropsExcessMessages(t *testing.T) {
	responder := &recordingResponder{}
	gin.SetMode(gin.TestMode)

	log := logger.New("development")
	repo := pricing.NewMemoryRepository()
	sessions := session.NewStore(session.NewMemoryDriver(), 5*time.Minute, log)
	engine := conversation.NewEngine(sessions, repo, intent.New(nil, 0, log), nil, nil, log)
	limiter := httpkit.NewKeyedRateLimiter(rate.Limit(0.01), 1, log)
	handler := NewHandler(engine, responder, limiter, NewDeduper(nil, 5*time.Minute, log), validator.New(), log)

	router := gin.New()
	router.POST("/api/v1/webhook/whatsapp", handler.HandleInbound)

	if _, status := postInbound(t, router, "rl-1", "593991234567@s.whatsapp.net", "hola"); status != statusProcessed {
		t.Fatalf("first message status = %q", status)
	}
	if _, status := postInbound(t, router, "rl-2", "593991234567@s.whatsapp.net", "hola"); status != statusRateLimited {
		t.Fatalf("second message status = %q, want %q", status, statusRateLimited)
	}
}

func TestHandleInbound_EmptyTextIgnored(t *testing.T) {
	responder := &recordingResponder{}
	router := newTestHandler(t, responder)

	_, status := postInbound(t, router, "msg-empty", "593991234567@s.whatsapp.net", "   <b></b>  ")
	if status != statusIgnored {
		t.Fatalf("status = %q, want %q", status, statusIgnored)
	}
	responder.mu.Lock()
	sent := len(responder.messages)
	responder.mu.Unlock()
	if sent != 0 {
		t.Fatalf("sent %d messages, want none", sent)
	}
}

func TestHandleInbound_MissingSenderRejected(t *testing.T) {
	responder := &recordingResponder{}
	router := newTestHandler(t, responder)

	body := []byte(`{"message":{"id":"x","text":"hola"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/whatsapp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeduper_LocalSetPrunesExpiredEntries(t *testing.T) {
	log := logger.New("development")
	dedup := NewDeduper(nil, 10*time.Millisecond, log)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if dedup.Seen(ctx, fmt.Sprintf("prune-%d", i)) {
			t.Fatalf("fresh message %d reported as seen", i)
		}
	}
	time.Sleep(20 * time.Millisecond)

	// Any check after the window prunes the stale entries.
	if dedup.Seen(ctx, "prune-after") {
		t.Fatalf("fresh message reported as seen")
	}
	dedup.mu.Lock()
	remaining := len(dedup.seen)
	dedup.mu.Unlock()
	if remaining != 1 {
		t.Fatalf("seen-set holds %d entries after prune, want 1", remaining)
	}

	if !dedup.Seen(ctx, "prune-after") {
		t.Fatalf("recent message not reported as seen")
	}
}
