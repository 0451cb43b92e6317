package conversation

import (
	"context"

	"shrimpquote_backend/internal/extract"
	"shrimpquote_backend/internal/intent"
	"shrimpquote_backend/internal/session"
)

// handleAwaitingGlazing parses the glazing reply for a single stored
// query. A failed parse only re-prompts; the partial query survives.
func (e *Engine) handleAwaitingGlazing(ctx context.Context, sess *session.Session, text, lang string) (string, error) {
	pending, ok := sess.Pending.(session.AwaitingGlazingData)
	if !ok {
		sess.Clear()
		return genericErrorMessage(lang), nil
	}

	percentage := extract.GlazingReply(text)
	if percentage == nil {
		return invalidGlazingMessage(lang), nil
	}

	query := pending.Query
	query.GlazingPercentage = percentage
	return e.advanceSingle(ctx, sess, query, lang, false)
}

// handleAwaitingFreight parses the freight reply and completes the quote.
func (e *Engine) handleAwaitingFreight(ctx context.Context, sess *session.Session, text, lang string) (string, error) {
	pending, ok := sess.Pending.(session.AwaitingFreightData)
	if !ok {
		sess.Clear()
		return genericErrorMessage(lang), nil
	}

	freight := extract.FreightReply(text)
	if freight == nil {
		return invalidFreightMessage(lang), nil
	}

	query := pending.Query
	query.FreightValue = freight
	return e.advanceSingle(ctx, sess, query, lang, false)
}

// handleAwaitingMultiGlazing applies one glazing value across the stored
// line items.
func (e *Engine) handleAwaitingMultiGlazing(ctx context.Context, sess *session.Session, text, lang string) (string, error) {
	pending, ok := sess.Pending.(session.AwaitingMultiGlazingData)
	if !ok || len(pending.Items) == 0 {
		sess.Clear()
		return genericErrorMessage(lang), nil
	}

	percentage := extract.GlazingReply(text)
	if percentage == nil {
		return invalidGlazingMessage(lang), nil
	}

	items := pending.Items
	for i := range items {
		items[i].GlazingPercentage = percentage
	}
	return e.advanceMulti(ctx, sess, items, lang, false)
}

// handleAwaitingMultiFreight applies one freight value across the stored
// line items and computes the consolidated quote.
func (e *Engine) handleAwaitingMultiFreight(ctx context.Context, sess *session.Session, text, lang string) (string, error) {
	pending, ok := sess.Pending.(session.AwaitingMultiFreightData)
	if !ok || len(pending.Items) == 0 {
		sess.Clear()
		return genericErrorMessage(lang), nil
	}

	freight := extract.FreightReply(text)
	if freight == nil {
		return invalidFreightMessage(lang), nil
	}

	items := pending.Items
	glazing := pending.GlazingPercentage
	for i := range items {
		items[i].GlazingPercentage = &glazing
		items[i].FreightValue = freight
	}
	return e.advanceMulti(ctx, sess, items, lang, false)
}

// handleClarification resolves an ambiguous whole-vs-tails request once
// the buyer names a product per group. The clarified items always go
// through the freight question unless a value was already given.
func (e *Engine) handleClarification(ctx context.Context, sess *session.Session, text, lang string) (string, error) {
	pending, ok := sess.Pending.(session.AwaitingClarificationData)
	if !ok {
		sess.Clear()
		return genericErrorMessage(lang), nil
	}

	wholeProduct, tailProduct, parsed := extract.ParseProductClarification(text)
	if !parsed {
		return invalidClarificationMessage(lang), nil
	}

	var queries []session.PriceQuery
	base := session.PriceQuery{
		GlazingPercentage: pending.GlazingPercentage,
		FreightValue:      pending.FreightValue,
		FreightRequested:  true,
		DDP:               pending.DDP,
		Destination:       pending.Destination,
		UsesPounds:        pending.UsesPounds,
		ClientName:        pending.ClientName,
	}
	if wholeProduct != "" {
		for _, size := range pending.WholeSizes {
			query := base
			query.Product = wholeProduct
			query.Size = size
			queries = append(queries, query)
		}
	}
	if tailProduct != "" {
		for _, size := range pending.TailSizes {
			query := base
			query.Product = tailProduct
			query.Size = size
			queries = append(queries, query)
		}
	}

	if len(queries) == 0 {
		sess.Clear()
		return genericErrorMessage(lang), nil
	}
	return e.advanceMulti(ctx, sess, queries, lang, false)
}

// handleSelection resolves a numbered menu reply. A full quote request
// typed instead of a number short-circuits back to the idle flow.
func (e *Engine) handleSelection(ctx context.Context, sess *session.Session, analysis intent.Analysis, text, lang string) (string, error) {
	pending, ok := sess.Pending.(session.AwaitingSelectionData)
	if !ok || len(pending.Options) == 0 {
		sess.Clear()
		return genericErrorMessage(lang), nil
	}

	choice, picked := extract.MenuSelection(text)
	if picked && choice >= 1 && choice <= len(pending.Options) {
		selected := pending.Options[choice-1]
		if sess.State == session.StateAwaitingProduct {
			return e.selectedProduct(ctx, sess, selected, pending.Size, lang)
		}
		query := session.PriceQuery{Product: pending.Product, Size: selected}
		return e.advanceSingle(ctx, sess, query, lang, true)
	}

	// Not a number: maybe the buyer typed the option, or a fresh request.
	if analysis.Intent == intent.IntentProforma && len(analysis.Params.Sizes) > 0 {
		sess.State = session.StateIdle
		sess.Pending = nil
		return e.startQuote(ctx, sess, analysis.Params, text, lang)
	}

	normalized := extract.Normalize(text)
	if sess.State == session.StateAwaitingProduct {
		if product, ambiguous := extract.Product(normalized); product != "" && !ambiguous {
			return e.selectedProduct(ctx, sess, product, pending.Size, lang)
		}
	} else if sizes := extract.Sizes(normalized); len(sizes) == 1 {
		query := session.PriceQuery{Product: pending.Product, Size: sizes[0]}
		return e.advanceSingle(ctx, sess, query, lang, true)
	}

	return invalidSelectionMessage(lang, len(pending.Options)), nil
}

// selectedProduct continues after a product menu pick: quote directly
// when a size is already known, otherwise show the size menu.
func (e *Engine) selectedProduct(ctx context.Context, sess *session.Session, product, size, lang string) (string, error) {
	if size != "" {
		query := session.PriceQuery{Product: product, Size: size}
		return e.advanceSingle(ctx, sess, query, lang, true)
	}
	return e.offerSizes(ctx, sess, product, lang)
}

// handleProformaLanguage parses the two-way language choice, persists it
// and hands the stored quote to the document collaborator.
func (e *Engine) handleProformaLanguage(ctx context.Context, sess *session.Session, text, lang string) (string, error) {
	choice, ok := extract.ParseLanguageSelection(text)
	if !ok {
		return invalidLanguageMessage(), nil
	}
	sess.PreferredLanguage = choice
	return e.deliverDocument(ctx, sess, choice)
}

// handleLanguagePreference updates the stored language outside of a
// quote flow.
func (e *Engine) handleLanguagePreference(sess *session.Session, text, lang string) string {
	choice, ok := extract.ParseLanguageSelection(text)
	if !ok {
		return invalidLanguageMessage()
	}
	sess.PreferredLanguage = choice
	sess.State = session.StateIdle
	sess.Pending = nil
	return languageSavedMessage(choice)
}
