package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"shrimpquote_backend/internal/intent"
	"shrimpquote_backend/internal/pricing"
	"shrimpquote_backend/internal/session"
	"shrimpquote_backend/platform/logger"
)

type stubDocuments struct {
	requests []DocumentRequest
	link     string
	err      error
}

func (s *stubDocuments) Deliver(ctx context.Context, req DocumentRequest) (string, error) {
	s.requests = append(s.requests, req)
	return s.link, s.err
}

type stubEscalator struct {
	calls int
}

func (s *stubEscalator) Escalate(ctx context.Context, sender, text string, history []session.Message) error {
	s.calls++
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *stubDocuments, *session.Store) {
	t.Helper()

	repo := pricing.NewMemoryFromSeed(pricing.Seed{
		FixedCost: 1.50,
		BasePrices: map[string]map[string]float64{
			"HLSO":   {"16/20": 8.55, "21/25": 8.10},
			"HOSO":   {"16/20": 10.00, "21/25": 9.40, "30/40": 8.00},
			"COOKED": {"40/50": 9.00},
		},
	})

	log := logger.New("development")
	store := session.NewStore(session.NewMemoryDriver(), 5*time.Minute, log)
	classifier := intent.New(nil, 0, log)
	docs := &stubDocuments{}

	engine := NewEngine(store, repo, classifier, docs, &stubEscalator{}, log)
	return engine, docs, store
}

func send(t *testing.T, e *Engine, sender, text string) string {
	t.Helper()
	reply, err := e.HandleMessage(context.Background(), sender, text)
	if err != nil {
		t.Fatalf("HandleMessage(%q): %v", text, err)
	}
	return reply
}

func mustState(t *testing.T, store *session.Store, sender string, want session.State) {
	t.Helper()
	sess, err := store.Get(context.Background(), sender)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess.State != want {
		t.Fatalf("state = %q, want %q", sess.State, want)
	}
}

func TestSingleQuote_GlazingFollowUpThenFOB(t *testing.T) {
	engine, docs, store := newTestEngine(t)
	sender := "+593991112233"

	reply := send(t, engine, sender, "precio HLSO 16/20")
	if !strings.Contains(reply, "glaseo") {
		t.Fatalf("expected glazing question, got %q", reply)
	}
	mustState(t, store, sender, session.StateAwaitingGlazing)

	reply = send(t, engine, sender, "20")
	if !strings.Contains(reply, "7.14") {
		t.Fatalf("expected FOB final 7.14 in reply, got %q", reply)
	}
	mustState(t, store, sender, session.StateAwaitingProformaLang)

	reply = send(t, engine, sender, "1")
	if len(docs.requests) != 1 {
		t.Fatalf("document requests = %d, want 1", len(docs.requests))
	}
	req := docs.requests[0]
	if req.Language != "es" {
		t.Errorf("document language = %q, want es", req.Language)
	}
	if len(req.Quotes) != 1 {
		t.Fatalf("document quotes = %d, want 1", len(req.Quotes))
	}
	quote := req.Quotes[0]
	if quote.Kg.Final != 7.14 || quote.FreightIncluded {
		t.Errorf("quote = %+v, want FOB final 7.14 without freight", quote)
	}
	if strings.Contains(reply, "glaseo") {
		t.Errorf("unexpected follow-up after delivery: %q", reply)
	}

	// The session resets but keeps the quote for modify-freight.
	sess, err := store.Get(context.Background(), sender)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess.State != session.StateIdle || len(sess.LastQuote) != 1 || sess.PreferredLanguage != "es" {
		t.Errorf("post-delivery session = %+v", sess)
	}
}

func TestCompleteQuoteInOneMessage_WaitsForConfirm(t *testing.T) {
	engine, docs, store := newTestEngine(t)
	sender := "+593991112244"

	reply := send(t, engine, sender, "precio HLSO 16/20 con 20% glaseo y flete 0.35")
	if !strings.Contains(reply, "7.49") {
		t.Fatalf("expected CFR final 7.49, got %q", reply)
	}
	if !strings.Contains(reply, "confirmar") {
		t.Fatalf("direct quote must ask for confirmation, got %q", reply)
	}
	mustState(t, store, sender, session.StateQuoteReady)
	if len(docs.requests) != 0 {
		t.Fatalf("no document before confirmation, got %d requests", len(docs.requests))
	}

	reply = send(t, engine, sender, "confirmar")
	if !strings.Contains(reply, "idioma") {
		t.Fatalf("confirm must ask for the proforma language, got %q", reply)
	}
	mustState(t, store, sender, session.StateSelectingLanguage)

	send(t, engine, sender, "1")
	if len(docs.requests) != 1 {
		t.Fatalf("document requests = %d, want 1", len(docs.requests))
	}
}

func TestQuantity_EchoedInQuoteSummary(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	sender := "+593991112299"

	reply := send(t, engine, sender, "precio HLSO 16/20 con 20% glaseo, 1000 kg, flete 0.35")
	if !strings.Contains(reply, "Cantidad: 1000 kg") {
		t.Fatalf("expected quantity echo in summary, got %q", reply)
	}
}

func TestMultiItemDDP_RequiresFreightBeforePricing(t *testing.T) {
	engine, docs, store := newTestEngine(t)
	sender := "+593991112255"

	reply := send(t, engine, sender, "HOSO 16/20 y 21/25 con 20% glaseo DDP Houston")
	if !strings.Contains(reply, "flete") {
		t.Fatalf("DDP without a value must ask for freight, got %q", reply)
	}
	mustState(t, store, sender, session.StateAwaitingMultiFreight)

	reply = send(t, engine, sender, "25")
	if !strings.Contains(reply, "16/20") || !strings.Contains(reply, "21/25") {
		t.Fatalf("expected both sizes in consolidated quote, got %q", reply)
	}
	mustState(t, store, sender, session.StateAwaitingMultiLang)

	send(t, engine, sender, "2")
	if len(docs.requests) != 1 {
		t.Fatalf("document requests = %d, want 1", len(docs.requests))
	}
	req := docs.requests[0]
	if req.Language != "en" || req.Destination != "Houston" {
		t.Errorf("request = %+v, want en/Houston", req)
	}
	if len(req.Quotes) != 2 {
		t.Fatalf("quotes = %d, want 2", len(req.Quotes))
	}
	for _, q := range req.Quotes {
		if q.Freight != 0.25 {
			t.Errorf("freight = %v, want 0.25 via cents heuristic", q.Freight)
		}
	}
}

func TestMultiItem_SharedGlazingAskedOnce(t *testing.T) {
	engine, _, store := newTestEngine(t)
	sender := "+593991112266"

	reply := send(t, engine, sender, "cotiza HOSO 16/20 y 21/25")
	if !strings.Contains(reply, "glaseo") {
		t.Fatalf("expected shared glazing question, got %q", reply)
	}
	mustState(t, store, sender, session.StateAwaitingMultiGlazing)

	reply = send(t, engine, sender, "10")
	// No freight was requested, so the quote completes as FOB.
	if !strings.Contains(reply, "16/20") || !strings.Contains(reply, "21/25") {
		t.Fatalf("expected consolidated FOB quote, got %q", reply)
	}
	mustState(t, store, sender, session.StateAwaitingMultiLang)
}

func TestAmbiguousWholeTails_ClarifiesThenQuotes(t *testing.T) {
	engine, _, store := newTestEngine(t)
	sender := "+593991112277"

	reply := send(t, engine, sender, "quiero inteiro 30/40 y colas cocidas 40/50 con 20% glaseo")
	if !strings.Contains(reply, "HOSO") || !strings.Contains(reply, "COOKED") {
		t.Fatalf("expected clarification options, got %q", reply)
	}
	mustState(t, store, sender, session.StateAwaitingClarification)

	reply = send(t, engine, sender, "HOSO para el entero y COOKED para las colas")
	if !strings.Contains(reply, "flete") {
		t.Fatalf("clarified items must still collect freight, got %q", reply)
	}
	mustState(t, store, sender, session.StateAwaitingMultiFreight)

	reply = send(t, engine, sender, "flete 0.20")
	if !strings.Contains(reply, "HOSO 30/40") || !strings.Contains(reply, "COOKED 40/50") {
		t.Fatalf("expected one quote per clarified group, got %q", reply)
	}
}

func TestGlobalMenu_ClearsMidFlow(t *testing.T) {
	engine, _, store := newTestEngine(t)
	sender := "+593991112288"

	send(t, engine, sender, "precio HLSO 16/20")
	mustState(t, store, sender, session.StateAwaitingGlazing)

	send(t, engine, sender, "menu")
	mustState(t, store, sender, session.StateIdle)

	reply := send(t, engine, sender, "precio HLSO 21/25")
	if !strings.Contains(reply, "glaseo") {
		t.Fatalf("expected a fresh flow after menu, got %q", reply)
	}
}

func TestParseFailure_RepromptsWithoutLosingProgress(t *testing.T) {
	engine, _, store := newTestEngine(t)
	sender := "+593991112299"

	send(t, engine, sender, "precio HLSO 16/20")
	reply := send(t, engine, sender, "dame un momento")
	if !strings.Contains(reply, "no v") && !strings.Contains(reply, "Porcentaje") {
		t.Fatalf("expected glazing re-prompt, got %q", reply)
	}
	mustState(t, store, sender, session.StateAwaitingGlazing)

	reply = send(t, engine, sender, "30")
	if !strings.Contains(reply, "HLSO") {
		t.Fatalf("partial query lost after re-prompt, got %q", reply)
	}
}

func TestLookupFailure_ListsAvailableSizes(t *testing.T) {
	engine, _, store := newTestEngine(t)
	sender := "+593991113300"

	send(t, engine, sender, "precio COOKED 16/20")
	reply := send(t, engine, sender, "20")
	if !strings.Contains(reply, "40/50") {
		t.Fatalf("expected available sizes in reply, got %q", reply)
	}
	mustState(t, store, sender, session.StateIdle)
}

func TestModifyFreight_RecomputesAndSkipsLanguagePrompt(t *testing.T) {
	engine, docs, _ := newTestEngine(t)
	sender := "+593991113311"

	send(t, engine, sender, "precio HLSO 16/20 con 20% glaseo y flete 0.35")
	send(t, engine, sender, "confirmar")
	send(t, engine, sender, "1")
	if len(docs.requests) != 1 {
		t.Fatalf("expected first delivery, got %d", len(docs.requests))
	}

	reply := send(t, engine, sender, "cambia el flete a 0.30")
	if len(docs.requests) != 2 {
		t.Fatalf("modify freight must go straight to delivery, got %d requests, reply %q", len(docs.requests), reply)
	}
	quote := docs.requests[1].Quotes[0]
	if quote.Freight != 0.30 {
		t.Errorf("freight = %v, want 0.30", quote.Freight)
	}
	if quote.Kg.Final != 7.44 {
		t.Errorf("final = %v, want 7.44 after freight change", quote.Kg.Final)
	}
}

func TestModifyFreight_WithoutQuoteExplains(t *testing.T) {
	engine, docs, _ := newTestEngine(t)

	reply := send(t, engine, "+593991113322", "cambia el flete a 0.30")
	if len(docs.requests) != 0 {
		t.Fatalf("no delivery expected, got %d", len(docs.requests))
	}
	if reply == "" {
		t.Fatal("expected an explanation reply")
	}
}

func TestInteractiveMenus_SizePickByNumber(t *testing.T) {
	engine, _, store := newTestEngine(t)
	sender := "+593991113333"

	reply := send(t, engine, sender, "que tallas tienes?")
	if !strings.Contains(reply, "1.") {
		t.Fatalf("expected numbered size menu, got %q", reply)
	}
	mustState(t, store, sender, session.StateAwaitingSize)

	reply = send(t, engine, sender, "1")
	if !strings.Contains(reply, "glaseo") {
		t.Fatalf("picking a size should start the quote flow, got %q", reply)
	}
	mustState(t, store, sender, session.StateAwaitingGlazing)
}

func TestLanguagePreference_SticksAcrossReset(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	sender := "+593991113344"

	send(t, engine, sender, "idioma")
	reply := send(t, engine, sender, "2")
	if !strings.Contains(reply, "English") {
		t.Fatalf("expected English confirmation, got %q", reply)
	}

	send(t, engine, sender, "menu")
	reply = send(t, engine, sender, "price HLSO 16/20")
	if !strings.Contains(reply, "glazing") {
		t.Fatalf("expected English prompts after preference, got %q", reply)
	}
}

func TestDocumentFailure_DegradesToTextAndUnsticksSession(t *testing.T) {
	engine, docs, store := newTestEngine(t)
	docs.err = context.DeadlineExceeded
	sender := "+593991113355"

	send(t, engine, sender, "precio HLSO 16/20 con 10% glaseo")
	send(t, engine, sender, "confirmar")
	reply := send(t, engine, sender, "1")
	if reply == "" {
		t.Fatal("expected a degraded text reply")
	}
	// The buyer must never be stuck after a collaborator failure.
	mustState(t, store, sender, session.StateIdle)
}

func TestPoundDestination_PublishesPerPoundFigures(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	sender := "+593991113377"

	reply := send(t, engine, sender, "precio HLSO 16/20 con 20% glaseo para Miami flete 0.20")
	if !strings.Contains(reply, "$0.09/lb") {
		t.Fatalf("freight must be shown per pound, got %q", reply)
	}
	if !strings.Contains(reply, "3.26") {
		t.Fatalf("expected lb final 3.26, got %q", reply)
	}
}

func TestZeroGlazingReply_IsValidNotUnspecified(t *testing.T) {
	engine, docs, _ := newTestEngine(t)
	sender := "+593991113366"

	send(t, engine, sender, "precio HLSO 16/20")
	reply := send(t, engine, sender, "sin glaseo")
	// factor 1.00: net 7.05 + fixed 1.50 = 8.55 final FOB.
	if !strings.Contains(reply, "8.55") {
		t.Fatalf("expected factor 1.00 quote, got %q", reply)
	}

	send(t, engine, sender, "1")
	if len(docs.requests) != 1 || docs.requests[0].Quotes[0].GlazingFactor != 1.00 {
		t.Fatalf("expected glazing factor 1.00, got %+v", docs.requests)
	}
}
