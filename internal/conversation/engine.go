// Package conversation owns the per-user state machine that turns chat
// messages into price quotes. It consumes the extractor, the classifier
// and the pricing engine, and talks to the document and escalation
// collaborators through narrow interfaces.
package conversation

import (
	"context"

	"shrimpquote_backend/internal/extract"
	"shrimpquote_backend/internal/intent"
	"shrimpquote_backend/internal/pricing"
	"shrimpquote_backend/internal/session"
	"shrimpquote_backend/platform/logger"
)

// DocumentRequest carries everything the proforma renderer needs.
type DocumentRequest struct {
	Sender      string
	Language    string
	ClientName  string
	Destination string
	Quotes      []pricing.Quote
}

// Documents renders and delivers a proforma. Implementations may work
// asynchronously; a returned link is offered to the buyer when direct
// delivery is not possible.
type Documents interface {
	Deliver(ctx context.Context, req DocumentRequest) (link string, err error)
}

// Escalator hands a conversation to a human when the automated pipeline
// cannot make sense of it.
type Escalator interface {
	Escalate(ctx context.Context, sender, text string, history []session.Message) error
}

// Engine is the conversation state machine.
type Engine struct {
	sessions   *session.Store
	prices     pricing.Repository
	classifier *intent.Classifier
	documents  Documents
	escalator  Escalator
	log        *logger.Logger
}

func NewEngine(sessions *session.Store, prices pricing.Repository, classifier *intent.Classifier, documents Documents, escalator Escalator, log *logger.Logger) *Engine {
	return &Engine{
		sessions:   sessions,
		prices:     prices,
		classifier: classifier,
		documents:  documents,
		escalator:  escalator,
		log:        log,
	}
}

// HandleMessage processes one inbound message and returns the reply text.
// A returned error means an unexpected failure; the caller answers with a
// generic apology and the session is left untouched so the buyer loses no
// progress.
func (e *Engine) HandleMessage(ctx context.Context, sender, text string) (string, error) {
	sess, err := e.sessions.Get(ctx, sender)
	if err != nil {
		return "", err
	}

	analysis := e.classifier.Classify(ctx, text, historyTurns(sess))
	lang := e.language(sess, analysis)

	if e.log != nil {
		e.log.InboundMessage(sender, string(analysis.Intent), string(sess.State), analysis.Confidence)
	}

	sess.AppendHistory("user", text)

	reply, err := e.dispatch(ctx, sess, analysis, text, lang)
	if err != nil {
		return "", err
	}

	sess.AppendHistory("assistant", reply)
	if err := e.sessions.Save(ctx, sess); err != nil {
		return "", err
	}
	return reply, nil
}

// language resolves the reply language: the stored preference wins, then
// the detected language of the current message, then Spanish.
func (e *Engine) language(sess *session.Session, analysis intent.Analysis) string {
	if sess.PreferredLanguage != "" {
		return sess.PreferredLanguage
	}
	if analysis.Params.Language != "" {
		return analysis.Params.Language
	}
	return "es"
}

func historyTurns(sess *session.Session) []intent.Turn {
	turns := make([]intent.Turn, 0, len(sess.History))
	for _, m := range sess.History {
		turns = append(turns, intent.Turn{Role: m.Role, Text: m.Text})
	}
	return turns
}

// dispatch checks global commands first, then routes to the handler for
// the current state.
func (e *Engine) dispatch(ctx context.Context, sess *session.Session, analysis intent.Analysis, text, lang string) (string, error) {
	switch analysis.Intent {
	case intent.IntentMenu:
		sess.Clear()
		return sessionResetMessage(lang) + "\n\n" + menuMessage(lang), nil
	case intent.IntentConfirm:
		return e.handleConfirm(sess, lang), nil
	case intent.IntentModifyFreight:
		return e.handleModifyFreight(ctx, sess, analysis, lang)
	}

	switch sess.State {
	case session.StateAwaitingGlazing:
		return e.handleAwaitingGlazing(ctx, sess, text, lang)
	case session.StateAwaitingFreight:
		return e.handleAwaitingFreight(ctx, sess, text, lang)
	case session.StateAwaitingMultiGlazing:
		return e.handleAwaitingMultiGlazing(ctx, sess, text, lang)
	case session.StateAwaitingMultiFreight:
		return e.handleAwaitingMultiFreight(ctx, sess, text, lang)
	case session.StateAwaitingClarification:
		return e.handleClarification(ctx, sess, text, lang)
	case session.StateAwaitingSize, session.StateAwaitingProduct:
		return e.handleSelection(ctx, sess, analysis, text, lang)
	case session.StateAwaitingProformaLang, session.StateAwaitingMultiLang, session.StateSelectingLanguage:
		return e.handleProformaLanguage(ctx, sess, text, lang)
	case session.StateAwaitingLanguage:
		return e.handleLanguagePreference(sess, text, lang), nil
	default:
		// Idle, QuoteReady and Conversational all accept fresh requests.
		return e.handleIdle(ctx, sess, analysis, text, lang)
	}
}

// handleConfirm starts document generation for the stored quote.
func (e *Engine) handleConfirm(sess *session.Session, lang string) string {
	if len(sess.LastQuote) == 0 {
		return noQuoteYetMessage(lang)
	}
	sess.State = session.StateSelectingLanguage
	sess.Pending = nil
	return languagePromptMessage()
}

// handleModifyFreight recomputes the stored quote with a new freight and
// goes straight to document generation, skipping the language prompt.
func (e *Engine) handleModifyFreight(ctx context.Context, sess *session.Session, analysis intent.Analysis, lang string) (string, error) {
	if len(sess.LastQuote) == 0 {
		return noQuoteYetMessage(lang), nil
	}
	freight := analysis.Params.FreightValue
	if freight == nil {
		return askNewFreightMessage(lang), nil
	}

	updated := make([]pricing.Quote, len(sess.LastQuote))
	for i, q := range sess.LastQuote {
		updated[i] = q.WithFreight(*freight)
	}
	sess.LastQuote = updated

	docLang := sess.PreferredLanguage
	if docLang == "" {
		docLang = lang
	}
	return e.deliverDocument(ctx, sess, docLang)
}

// handleIdle interprets a fresh message with no pending question.
func (e *Engine) handleIdle(ctx context.Context, sess *session.Session, analysis intent.Analysis, text, lang string) (string, error) {
	switch analysis.Intent {
	case intent.IntentGreeting:
		return greetingMessage(lang), nil
	case intent.IntentHelp:
		return helpMessage(lang), nil
	case intent.IntentLanguage:
		sess.State = session.StateAwaitingLanguage
		sess.Pending = nil
		return languagePromptMessage(), nil
	case intent.IntentProducts:
		products := extract.KnownProducts()
		sess.State = session.StateAwaitingProduct
		sess.Pending = session.AwaitingSelectionData{Options: products}
		return productListMessage(lang, products), nil
	case intent.IntentSizes:
		return e.offerSizes(ctx, sess, analysis.Params.Product, lang)
	case intent.IntentProforma:
		return e.startQuote(ctx, sess, analysis.Params, text, lang)
	default:
		return e.handleUnknown(ctx, sess, analysis, text, lang)
	}
}

// offerSizes shows the numbered size menu for a product, defaulting to
// HLSO when the buyer named none.
func (e *Engine) offerSizes(ctx context.Context, sess *session.Session, product, lang string) (string, error) {
	if product == "" {
		product = extract.ProductHLSO
	}
	sizes, err := e.prices.AvailableSizes(ctx, product)
	if err != nil || len(sizes) == 0 {
		if err != nil && e.log != nil {
			e.log.DatabaseError("available_sizes", err)
		}
		return conversationalFallbackMessage(lang), nil
	}
	sess.State = session.StateAwaitingSize
	sess.Pending = session.AwaitingSelectionData{Options: sizes, Product: product}
	return sizeListMessage(lang, product, sizes), nil
}

// handleUnknown is the conversational fallback. When even the external
// classifier stayed unsure, the exchange is escalated to a human.
func (e *Engine) handleUnknown(ctx context.Context, sess *session.Session, analysis intent.Analysis, text, lang string) (string, error) {
	if analysis.Escalated && analysis.Confidence < 0.5 && e.escalator != nil {
		if err := e.escalator.Escalate(ctx, sess.Key, text, sess.History); err != nil {
			if e.log != nil {
				e.log.CollaboratorError("escalation", err)
			}
		} else {
			return escalatedMessage(lang), nil
		}
	}
	sess.State = session.StateConversational
	return conversationalFallbackMessage(lang), nil
}
