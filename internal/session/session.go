// Package session holds per-user conversation state: a keyed, TTL-expiring
// cache with crash-safe snapshot persistence. It is a best-effort cache,
// not a transactional store.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"shrimpquote_backend/internal/pricing"
)

// State is the conversation state machine position.
type State string

const (
	StateIdle                   State = "idle"
	StateAwaitingSize           State = "awaiting_size"
	StateAwaitingProduct        State = "awaiting_product"
	StateAwaitingGlazing        State = "awaiting_glazing"
	StateAwaitingFreight        State = "awaiting_freight"
	StateAwaitingClarification  State = "awaiting_product_clarification"
	StateAwaitingMultiGlazing   State = "awaiting_multi_glazing"
	StateAwaitingMultiFreight   State = "awaiting_multi_freight"
	StateAwaitingLanguage       State = "awaiting_language_selection"
	StateAwaitingProformaLang   State = "awaiting_proforma_language"
	StateAwaitingMultiLang      State = "awaiting_multi_language"
	StateQuoteReady             State = "quote_ready"
	StateSelectingLanguage      State = "selecting_language"
	StateConversational         State = "conversational"
)

// historyCap bounds the stored conversation history handed to the
// fallback classifier.
const historyCap = 20

// Message is one conversation history entry.
type Message struct {
	Role string    `json:"role"` // user or assistant
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// PriceQuery is a partially or fully resolved quote request stored while
// follow-up questions are outstanding. Pointer fields distinguish
// "unspecified" from explicit zero values.
type PriceQuery struct {
	Product           string   `json:"product"`
	Size              string   `json:"size"`
	GlazingPercentage *int     `json:"glazingPercentage,omitempty"`
	FreightValue      *float64 `json:"freightValue,omitempty"`
	FreightRequested  bool     `json:"freightRequested"`
	DDP               bool     `json:"ddp"`
	Destination       string   `json:"destination,omitempty"`
	UsesPounds        bool     `json:"usesPounds"`
	ClientName        string   `json:"clientName,omitempty"`
	QuantityText      string   `json:"quantityText,omitempty"`
}

// PendingData is the tagged union of state-specific stored data. Each
// Awaiting* state declares exactly the fields it needs.
type PendingData interface {
	pendingKind() string
}

// AwaitingGlazingData stores the single query waiting for a glazing value.
type AwaitingGlazingData struct {
	Query PriceQuery `json:"query"`
}

// AwaitingFreightData stores the single query waiting for a freight value.
type AwaitingFreightData struct {
	Query PriceQuery `json:"query"`
}

// AwaitingMultiGlazingData stores line items sharing one pending glazing.
type AwaitingMultiGlazingData struct {
	Items []PriceQuery `json:"items"`
}

// AwaitingMultiFreightData stores line items whose glazing is resolved and
// which share one pending freight.
type AwaitingMultiFreightData struct {
	Items             []PriceQuery `json:"items"`
	GlazingPercentage int          `json:"glazingPercentage"`
}

// AwaitingClarificationData stores an ambiguous whole-vs-tails request
// until the buyer assigns a product per group. Sizes are kept per group
// so the clarified products pair with the right size codes.
type AwaitingClarificationData struct {
	WholeSizes        []string `json:"wholeSizes,omitempty"`
	TailSizes         []string `json:"tailSizes,omitempty"`
	GlazingPercentage *int     `json:"glazingPercentage,omitempty"`
	FreightValue      *float64 `json:"freightValue,omitempty"`
	DDP               bool     `json:"ddp"`
	Destination       string   `json:"destination,omitempty"`
	UsesPounds        bool     `json:"usesPounds"`
	ClientName        string   `json:"clientName,omitempty"`
}

// AwaitingSelectionData stores the numbered options shown by an
// interactive menu so a bare-number reply can be resolved.
type AwaitingSelectionData struct {
	Options []string `json:"options"`
	Product string   `json:"product,omitempty"`
	Size    string   `json:"size,omitempty"`
}

func (AwaitingGlazingData) pendingKind() string       { return "awaiting_glazing" }
func (AwaitingFreightData) pendingKind() string       { return "awaiting_freight" }
func (AwaitingMultiGlazingData) pendingKind() string  { return "awaiting_multi_glazing" }
func (AwaitingMultiFreightData) pendingKind() string  { return "awaiting_multi_freight" }
func (AwaitingClarificationData) pendingKind() string { return "awaiting_clarification" }
func (AwaitingSelectionData) pendingKind() string     { return "awaiting_selection" }

// Session is one user's conversation state.
type Session struct {
	Key               string          `json:"key"`
	State             State           `json:"state"`
	Pending           PendingData     `json:"-"`
	LastQuote         []pricing.Quote `json:"lastQuote,omitempty"`
	QuoteDestination  string          `json:"quoteDestination,omitempty"`
	QuoteClientName   string          `json:"quoteClientName,omitempty"`
	PreferredLanguage string          `json:"preferredLanguage,omitempty"`
	History           []Message       `json:"history,omitempty"`
	LastActivity      time.Time       `json:"lastActivity"`
}

// New creates a fresh idle session for a user key.
func New(key string) *Session {
	return &Session{
		Key:          key,
		State:        StateIdle,
		LastActivity: time.Now().UTC(),
	}
}

// Touch refreshes the activity timestamp.
func (s *Session) Touch() {
	s.LastActivity = time.Now().UTC()
}

// Expired reports whether the session has idled past the TTL.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.LastActivity) > ttl
}

// AppendHistory records one turn, keeping at most historyCap entries.
func (s *Session) AppendHistory(role, text string) {
	s.History = append(s.History, Message{Role: role, Text: text, At: time.Now().UTC()})
	if len(s.History) > historyCap {
		s.History = s.History[len(s.History)-historyCap:]
	}
}

// Clear resets the session after a quote is delivered or abandoned.
// PreferredLanguage and LastQuote survive; everything else is dropped.
func (s *Session) Clear() {
	s.State = StateIdle
	s.Pending = nil
	s.History = nil
	s.Touch()
}

// --- JSON encoding -----------------------------------------------------
//
// Pending is an interface, so sessions marshal through an envelope that
// tags the concrete variant.

type sessionJSON struct {
	Key               string           `json:"key"`
	State             State            `json:"state"`
	Pending           *pendingEnvelope `json:"pending,omitempty"`
	LastQuote         []pricing.Quote  `json:"lastQuote,omitempty"`
	QuoteDestination  string           `json:"quoteDestination,omitempty"`
	QuoteClientName   string           `json:"quoteClientName,omitempty"`
	PreferredLanguage string           `json:"preferredLanguage,omitempty"`
	History           []Message        `json:"history,omitempty"`
	LastActivity      time.Time        `json:"lastActivity"`
}

type pendingEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the session including its tagged pending data.
func (s *Session) MarshalJSON() ([]byte, error) {
	out := sessionJSON{
		Key:               s.Key,
		State:             s.State,
		LastQuote:         s.LastQuote,
		QuoteDestination:  s.QuoteDestination,
		QuoteClientName:   s.QuoteClientName,
		PreferredLanguage: s.PreferredLanguage,
		History:           s.History,
		LastActivity:      s.LastActivity,
	}
	if s.Pending != nil {
		data, err := json.Marshal(s.Pending)
		if err != nil {
			return nil, err
		}
		out.Pending = &pendingEnvelope{Kind: s.Pending.pendingKind(), Data: data}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the session, restoring the concrete pending type.
func (s *Session) UnmarshalJSON(raw []byte) error {
	var in sessionJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}

	s.Key = in.Key
	s.State = in.State
	s.LastQuote = in.LastQuote
	s.QuoteDestination = in.QuoteDestination
	s.QuoteClientName = in.QuoteClientName
	s.PreferredLanguage = in.PreferredLanguage
	s.History = in.History
	s.LastActivity = in.LastActivity
	s.Pending = nil

	if in.Pending == nil {
		return nil
	}

	switch in.Pending.Kind {
	case "awaiting_glazing":
		var data AwaitingGlazingData
		if err := json.Unmarshal(in.Pending.Data, &data); err != nil {
			return err
		}
		s.Pending = data
	case "awaiting_freight":
		var data AwaitingFreightData
		if err := json.Unmarshal(in.Pending.Data, &data); err != nil {
			return err
		}
		s.Pending = data
	case "awaiting_multi_glazing":
		var data AwaitingMultiGlazingData
		if err := json.Unmarshal(in.Pending.Data, &data); err != nil {
			return err
		}
		s.Pending = data
	case "awaiting_multi_freight":
		var data AwaitingMultiFreightData
		if err := json.Unmarshal(in.Pending.Data, &data); err != nil {
			return err
		}
		s.Pending = data
	case "awaiting_clarification":
		var data AwaitingClarificationData
		if err := json.Unmarshal(in.Pending.Data, &data); err != nil {
			return err
		}
		s.Pending = data
	case "awaiting_selection":
		var data AwaitingSelectionData
		if err := json.Unmarshal(in.Pending.Data, &data); err != nil {
			return err
		}
		s.Pending = data
	default:
		return fmt.Errorf("unknown pending kind %q", in.Pending.Kind)
	}
	return nil
}
