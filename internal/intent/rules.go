package intent

import (
	"shrimpquote_backend/internal/extract"
)

var greetingPhrases = []string{
	"hola", "buenas", "buenos dias", "buenas tardes", "buenas noches",
	"hello", "hi", "hey", "good morning", "good afternoon",
}

var menuPhrases = []string{"menu", "menú", "reset", "reiniciar", "inicio", "start over", "volver"}

var confirmPhrases = []string{"confirmar", "confirmo", "confirm", "pdf", "proforma pdf", "genera el pdf"}

var quoteVocabulary = []string{
	"precio", "precios", "cotiza", "cotizar", "cotizacion", "proforma",
	"cuanto", "price", "prices", "quote", "quotation", "how much",
}

var productListPhrases = []string{"productos", "products", "que productos", "what products", "catalogo"}

var sizeListPhrases = []string{"tallas", "sizes", "que tallas", "what sizes"}

var helpPhrases = []string{"ayuda", "help", "como funciona", "how does this work"}

var languagePhrases = []string{"idioma", "cambiar idioma", "change language", "language"}

var modifyFreightPhrases = []string{
	"cambia el flete", "cambiar flete", "modifica el flete", "modificar flete",
	"nuevo flete", "otro flete", "change freight", "change the freight", "new freight",
}

// classifyLocal runs the rule-based pass. Confidence scoring: a proforma
// request starts at 0.6 and earns 0.1 per resolved field, capped at 0.95;
// greetings score 0.8; unknown 0.3.
func classifyLocal(text string) Analysis {
	normalized := extract.Normalize(text)
	params := extract.Extract(text)

	if phrase := firstPhrase(normalized, menuPhrases); phrase != "" {
		return Analysis{Intent: IntentMenu, Confidence: 0.9, Params: params}
	}

	// Modify-freight must not swallow fresh quote requests that happen to
	// mention freight; a size code or quote vocabulary means a new quote.
	if firstPhrase(normalized, modifyFreightPhrases) != "" &&
		len(params.Sizes) == 0 && firstPhrase(normalized, quoteVocabulary) == "" {
		return Analysis{Intent: IntentModifyFreight, Confidence: 0.85, Params: params}
	}

	if phrase := firstPhrase(normalized, confirmPhrases); phrase != "" && len(params.Sizes) == 0 {
		return Analysis{Intent: IntentConfirm, Confidence: 0.85, Params: params}
	}

	if len(params.Sizes) > 0 || firstPhrase(normalized, quoteVocabulary) != "" {
		return Analysis{Intent: IntentProforma, Confidence: proformaConfidence(params), Params: params}
	}

	if phrase := firstPhrase(normalized, productListPhrases); phrase != "" {
		return Analysis{Intent: IntentProducts, Confidence: 0.8, Params: params}
	}
	if phrase := firstPhrase(normalized, sizeListPhrases); phrase != "" {
		return Analysis{Intent: IntentSizes, Confidence: 0.8, Params: params}
	}
	if phrase := firstPhrase(normalized, helpPhrases); phrase != "" {
		return Analysis{Intent: IntentHelp, Confidence: 0.8, Params: params}
	}

	if firstPhrase(normalized, languagePhrases) != "" {
		return Analysis{Intent: IntentLanguage, Confidence: 0.8, Params: params}
	}
	if _, ok := extract.ParseLanguageSelection(text); ok {
		return Analysis{Intent: IntentLanguage, Confidence: 0.8, Params: params}
	}

	if phrase := firstPhrase(normalized, greetingPhrases); phrase != "" {
		return Analysis{Intent: IntentGreeting, Confidence: 0.8, Params: params}
	}

	return Analysis{Intent: IntentUnknown, Confidence: 0.3, Params: params}
}

// proformaConfidence scores in whole tenths to keep the published values
// exact in floating point.
func proformaConfidence(params extract.Params) float64 {
	tenths := 6
	if len(params.Sizes) > 0 {
		tenths++
	}
	if params.Product != "" || params.AmbiguousProduct {
		tenths++
	}
	if params.Destination != "" {
		tenths++
	}
	if params.GlazingPercentage != nil {
		tenths++
	}
	confidence := float64(tenths) / 10
	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence
}

// firstPhrase matches on word boundaries: a quote request mentioning
// "a menudo" must not read as the menu command.
func firstPhrase(normalized string, phrases []string) string {
	for _, phrase := range phrases {
		if extract.ContainsPhrase(normalized, phrase) {
			return phrase
		}
	}
	return ""
}
