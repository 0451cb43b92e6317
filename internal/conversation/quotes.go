package conversation

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"shrimpquote_backend/internal/extract"
	"shrimpquote_backend/internal/pricing"
	"shrimpquote_backend/internal/session"
	"shrimpquote_backend/platform/apperr"
)

// lookupLimit bounds parallel price lookups for consolidated quotes.
const lookupLimit = 4

// startQuote interprets a proforma-intent message from idle, asking for
// whatever is still missing or computing the quote outright.
func (e *Engine) startQuote(ctx context.Context, sess *session.Session, params extract.Params, text, lang string) (string, error) {
	if params.Language != "" && sess.PreferredLanguage == "" {
		lang = params.Language
	}

	normalized := extract.Normalize(text)

	// Ambiguous whole-vs-tails requests never guess a product.
	if params.AmbiguousProduct {
		whole, tails := extract.GroupAmbiguousSizes(normalized)
		if len(whole) == 0 && len(tails) == 0 {
			return askProductAndSizeMessage(lang), nil
		}
		sess.State = session.StateAwaitingClarification
		sess.Pending = session.AwaitingClarificationData{
			WholeSizes:        whole,
			TailSizes:         tails,
			GlazingPercentage: params.GlazingPercentage,
			FreightValue:      params.FreightValue,
			DDP:               params.DDP,
			Destination:       params.Destination,
			UsesPounds:        params.UsesPounds,
			ClientName:        params.ClientName,
		}
		return clarificationMessage(lang, whole, tails), nil
	}

	// Missing size or product: ask and stay idle. There is nothing worth
	// resuming until the buyer restates the request.
	if len(params.Sizes) == 0 {
		if params.Product != "" {
			return askSizeMessage(lang, params.Product), nil
		}
		return askProductAndSizeMessage(lang), nil
	}
	if params.Product == "" && len(params.Sizes) == 1 {
		return askProductMessage(lang, params.Sizes[0]), nil
	}

	if len(params.Sizes) >= 2 {
		return e.startMultiQuote(ctx, sess, params, normalized, lang)
	}

	query := queryFromParams(params, params.Product, params.Sizes[0])
	return e.advanceSingle(ctx, sess, query, lang, true)
}

// queryFromParams builds one stored line item from an extraction pass.
func queryFromParams(params extract.Params, product, size string) session.PriceQuery {
	query := session.PriceQuery{
		Product:           product,
		Size:              size,
		GlazingPercentage: params.GlazingPercentage,
		FreightValue:      params.FreightValue,
		FreightRequested:  params.FreightRequested,
		DDP:               params.DDP,
		Destination:       params.Destination,
		UsesPounds:        params.UsesPounds,
		ClientName:        params.ClientName,
	}
	if params.Quantity != nil {
		query.QuantityText = fmt.Sprintf("%g %s", params.Quantity.Value, params.Quantity.Unit)
	}
	return query
}

// advanceSingle moves a single-item query forward: ask for glazing, then
// freight, then compute. A direct quote, completed without follow-up
// questions, waits in QuoteReady for an explicit confirmation; answered
// follow-ups go straight to the proforma language prompt.
func (e *Engine) advanceSingle(ctx context.Context, sess *session.Session, query session.PriceQuery, lang string, direct bool) (string, error) {
	if query.GlazingPercentage == nil {
		sess.State = session.StateAwaitingGlazing
		sess.Pending = session.AwaitingGlazingData{Query: query}
		return askGlazingMessage(lang, query.Product, query.Size), nil
	}

	resolved, needAsk, err := e.resolveFreight(ctx, query)
	if err != nil {
		return "", err
	}
	if needAsk {
		sess.State = session.StateAwaitingFreight
		sess.Pending = session.AwaitingFreightData{Query: query}
		return askFreightMessage(lang, query.Destination), nil
	}
	query.FreightValue = resolved

	quote, err := e.computeOne(ctx, query)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Kind == apperr.KindNotFound {
			sess.Clear()
			return sizeNotFoundMessage(lang, query.Product, query.Size, availableFromDetails(appErr)), nil
		}
		return "", err
	}

	return e.finishQuote(sess, []pricing.Quote{quote}, query, nil, false, direct, lang), nil
}

// startMultiQuote builds one line item per size and moves the set through
// the shared glazing and freight questions.
func (e *Engine) startMultiQuote(ctx context.Context, sess *session.Session, params extract.Params, normalized, lang string) (string, error) {
	items := extract.SplitItems(normalized, params.Product)
	if len(items) == 0 {
		sess.Clear()
		return genericErrorMessage(lang), nil
	}

	queries := make([]session.PriceQuery, 0, len(items))
	for _, item := range items {
		if item.Product == "" {
			return askProductMessage(lang, item.Size), nil
		}
		queries = append(queries, queryFromParams(params, item.Product, item.Size))
	}

	return e.advanceMulti(ctx, sess, queries, lang, true)
}

// advanceMulti asks the shared glazing and freight questions for a line
// item list, computing once both are resolved.
func (e *Engine) advanceMulti(ctx context.Context, sess *session.Session, queries []session.PriceQuery, lang string, direct bool) (string, error) {
	if len(queries) == 0 {
		sess.Clear()
		return genericErrorMessage(lang), nil
	}
	shared := queries[0]

	if shared.GlazingPercentage == nil {
		sess.State = session.StateAwaitingMultiGlazing
		sess.Pending = session.AwaitingMultiGlazingData{Items: queries}
		return askMultiGlazingMessage(lang, itemLabels(queries)), nil
	}

	resolved, needAsk, err := e.resolveFreight(ctx, shared)
	if err != nil {
		return "", err
	}
	if needAsk {
		sess.State = session.StateAwaitingMultiFreight
		sess.Pending = session.AwaitingMultiFreightData{
			Items:             queries,
			GlazingPercentage: *shared.GlazingPercentage,
		}
		return askFreightMessage(lang, shared.Destination), nil
	}
	for i := range queries {
		queries[i].FreightValue = resolved
	}

	quotes, failures, err := e.computeMany(ctx, queries, lang)
	if err != nil {
		return "", err
	}
	if len(quotes) == 0 {
		sess.Clear()
		return genericErrorMessage(lang) + "\n" + joinFailures(failures), nil
	}
	return e.finishQuote(sess, quotes, shared, failures, true, direct, lang), nil
}

// resolveFreight decides the freight for a query: an explicit value wins,
// DDP always asks, a known destination tries the stored rate table, and a
// bare freight mention asks. FOB requests return nil with no question.
func (e *Engine) resolveFreight(ctx context.Context, query session.PriceQuery) (*float64, bool, error) {
	if query.FreightValue != nil {
		return query.FreightValue, false, nil
	}
	if query.DDP {
		return nil, true, nil
	}
	if query.Destination != "" {
		rate, err := e.prices.FreightRate(ctx, query.Destination)
		if err != nil {
			if apperr.GetKind(err) == apperr.KindNotFound {
				return nil, true, nil
			}
			return nil, false, err
		}
		return &rate, false, nil
	}
	if query.FreightRequested {
		return nil, true, nil
	}
	return nil, false, nil
}

// computeOne prices a fully resolved single query.
func (e *Engine) computeOne(ctx context.Context, query session.PriceQuery) (pricing.Quote, error) {
	if query.GlazingPercentage == nil {
		return pricing.Quote{}, pricing.ErrGlazingRequired
	}

	base, err := e.prices.BasePrice(ctx, query.Product, query.Size)
	if err != nil {
		return pricing.Quote{}, err
	}
	fixed, err := e.prices.FixedCost(ctx)
	if err != nil {
		return pricing.Quote{}, err
	}

	factor := pricing.GlazingFactor(*query.GlazingPercentage)
	in := pricing.Inputs{
		Product:       query.Product,
		Size:          query.Size,
		BaseKg:        base,
		FixedCostKg:   fixed,
		GlazingFactor: &factor,
		DDP:           query.DDP,
		UsesPounds:    query.UsesPounds,
	}
	if query.FreightValue != nil {
		in.Freight = *query.FreightValue
		in.FreightIncluded = true
	}
	return pricing.Compute(in)
}

// computeMany prices every line item, collecting per-item lookup failures
// instead of aborting the whole set. Lookups run in parallel.
func (e *Engine) computeMany(ctx context.Context, queries []session.PriceQuery, lang string) ([]pricing.Quote, []string, error) {
	type result struct {
		quote pricing.Quote
		err   error
	}
	results := make([]result, len(queries))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(lookupLimit)
	for i, query := range queries {
		group.Go(func() error {
			quote, err := e.computeOne(groupCtx, query)
			results[i] = result{quote: quote, err: err}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	var quotes []pricing.Quote
	var failures []string
	for i, r := range results {
		if r.err == nil {
			quotes = append(quotes, r.quote)
			continue
		}
		var appErr *apperr.Error
		if errors.As(r.err, &appErr) && appErr.Kind == apperr.KindNotFound {
			failures = append(failures, sizeNotFoundMessage(lang, queries[i].Product, queries[i].Size, availableFromDetails(appErr)))
			continue
		}
		return nil, nil, r.err
	}
	return quotes, failures, nil
}

// finishQuote stores the result. A direct quote waits in QuoteReady for
// the global confirm command; a quote completed through follow-up answers
// moves on to the proforma language question immediately.
func (e *Engine) finishQuote(sess *session.Session, quotes []pricing.Quote, shared session.PriceQuery, failures []string, multi, direct bool, lang string) string {
	sess.LastQuote = quotes
	sess.QuoteDestination = shared.Destination
	sess.QuoteClientName = shared.ClientName
	sess.Pending = nil
	switch {
	case direct:
		sess.State = session.StateQuoteReady
	case multi:
		sess.State = session.StateAwaitingMultiLang
	default:
		sess.State = session.StateAwaitingProformaLang
	}

	var summary string
	if multi {
		summary = formatQuotes(lang, quotes, shared.Destination, failures)
	} else {
		summary = formatQuote(lang, quotes[0], shared.Destination, shared.QuantityText)
	}
	if e.log != nil {
		for _, q := range quotes {
			e.log.QuoteComputed(sess.Key, q.Product, q.Size, q.Kg.Final)
		}
	}
	if direct {
		return summary + "\n" + confirmPromptMessage(lang)
	}
	return summary + "\n" + languagePromptMessage()
}

// deliverDocument hands the stored quote to the proforma collaborator and
// clears the session, preserving language and last quote.
func (e *Engine) deliverDocument(ctx context.Context, sess *session.Session, docLang string) (string, error) {
	if len(sess.LastQuote) == 0 {
		sess.Clear()
		return genericErrorMessage(docLang), nil
	}

	req := DocumentRequest{
		Sender:      sess.Key,
		Language:    docLang,
		ClientName:  sess.QuoteClientName,
		Destination: sess.QuoteDestination,
		Quotes:      sess.LastQuote,
	}

	reply := proformaOnItsWayMessage(docLang)
	if e.documents == nil {
		reply = documentFallbackMessage(docLang, "")
	} else if link, err := e.documents.Deliver(ctx, req); err != nil {
		if e.log != nil {
			e.log.CollaboratorError("proforma", err)
		}
		reply = documentFallbackMessage(docLang, "")
	} else if link != "" {
		reply = documentFallbackMessage(docLang, link)
	}

	sess.Clear()
	return reply, nil
}

func availableFromDetails(err *apperr.Error) []string {
	if sizes, ok := err.Details.([]string); ok {
		return sizes
	}
	return nil
}

func joinFailures(failures []string) string {
	out := ""
	for _, f := range failures {
		out += f + "\n"
	}
	return out
}

func itemLabels(queries []session.PriceQuery) []string {
	labels := make([]string, 0, len(queries))
	for _, q := range queries {
		labels = append(labels, q.Product+" "+q.Size)
	}
	return labels
}
