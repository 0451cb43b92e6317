// Package intent decides what an inbound message is asking for. Local
// rule-based classification always runs; an external LLM classifier is only
// consulted when local confidence is low or the request looks complex, and
// its result is merged under a precedence rule that never erases facts the
// rules already established.
package intent

import (
	"context"
	"time"

	"shrimpquote_backend/internal/extract"
	"shrimpquote_backend/platform/logger"
)

// Intent is the purpose of one inbound message.
type Intent string

const (
	IntentGreeting      Intent = "greeting"
	IntentProforma      Intent = "proforma"
	IntentProducts      Intent = "products"
	IntentSizes         Intent = "sizes"
	IntentHelp          Intent = "help"
	IntentMenu          Intent = "menu"
	IntentConfirm       Intent = "confirm"
	IntentModifyFreight Intent = "modify_freight"
	IntentLanguage      Intent = "language"
	IntentUnknown       Intent = "unknown"
)

// Turn is one prior exchange handed to the fallback classifier as context.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Analysis is the combined classification and extraction result.
type Analysis struct {
	Intent     Intent
	Confidence float64
	Params     extract.Params
	// Escalated reports whether the external classifier contributed.
	Escalated bool
}

// FallbackClassifier is the external LLM collaborator. It must respect the
// context deadline; any error degrades to local-only classification.
type FallbackClassifier interface {
	Classify(ctx context.Context, text string, history []Turn) (Analysis, error)
}

// escalationThreshold is the local confidence below which the external
// classifier is consulted.
const escalationThreshold = 0.7

// Classifier combines rules with the optional fallback.
type Classifier struct {
	fallback FallbackClassifier
	timeout  time.Duration
	log      *logger.Logger
}

// New creates a classifier. fallback may be nil, in which case every
// message is classified locally.
func New(fallback FallbackClassifier, timeout time.Duration, log *logger.Logger) *Classifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Classifier{fallback: fallback, timeout: timeout, log: log}
}

// Classify analyzes one message. The rule result is authoritative unless
// the fallback answers with strictly higher confidence; even then, a
// destination or glazing percentage the rules found locally is copied back
// into the merged result.
func (c *Classifier) Classify(ctx context.Context, text string, history []Turn) Analysis {
	local := classifyLocal(text)

	if !c.shouldEscalate(local) {
		return local
	}

	fallbackCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	remote, err := c.fallback.Classify(fallbackCtx, text, history)
	if err != nil {
		if c.log != nil {
			c.log.CollaboratorError("fallback_classifier", err)
		}
		return local
	}

	return merge(local, remote)
}

func (c *Classifier) shouldEscalate(local Analysis) bool {
	if c.fallback == nil {
		return false
	}
	if local.Intent == IntentGreeting || local.Intent == IntentMenu {
		return false
	}
	if local.Confidence < escalationThreshold {
		return true
	}
	// High local confidence still escalates for complex quote requests.
	return local.Intent == IntentProforma && len(local.Params.Sizes) > 0
}

// merge applies the precedence rule between the local and remote analyses.
func merge(local, remote Analysis) Analysis {
	if remote.Confidence <= local.Confidence {
		local.Escalated = true
		return local
	}

	merged := remote
	merged.Escalated = true
	if merged.Params.Destination == "" && local.Params.Destination != "" {
		merged.Params.Destination = local.Params.Destination
		merged.Params.UsesPounds = local.Params.UsesPounds
	}
	if merged.Params.GlazingPercentage == nil && local.Params.GlazingPercentage != nil {
		merged.Params.GlazingPercentage = local.Params.GlazingPercentage
	}
	return merged
}
