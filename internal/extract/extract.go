// Package extract pulls structured commercial parameters out of free-text
// chat messages. All functions are pure: absence of a field is reported as
// "not found", never guessed, and nothing here touches I/O.
package extract

import "strings"

// Quantity is a parsed amount with its unit. "k/box" expands to
// kilograms-per-box via KgPerBox.
type Quantity struct {
	Value    float64 `json:"value"`
	Unit     string  `json:"unit"` // lb, kg, ton, k/box
	KgPerBox float64 `json:"kgPerBox,omitempty"`
}

// Params is the result of one extraction pass over a message. Pointer
// fields distinguish "not found" from legitimate zero values; glazing 0%
// and freight 0 are both meaningful.
type Params struct {
	Product          string
	AmbiguousProduct bool
	Sizes            []string

	GlazingPercentage *int

	FreightValue     *float64
	FreightRequested bool
	DDP              bool

	Destination string
	UsesPounds  bool

	Quantity   *Quantity
	ClientName string
	Language   string // es, en or empty when undecidable
}

// Items groups the sizes of a multi-item request into one line item each.
// Every item inherits the message-level product unless a closer product
// mention overrides it; see SplitItems.
type Item struct {
	Product string
	Size    string
}

// Extract runs every extractor over a normalized copy of the message.
func Extract(text string) Params {
	normalized := Normalize(text)

	params := Params{
		Sizes:      Sizes(normalized),
		ClientName: ClientName(text),
		Language:   DetectLanguage(normalized),
	}

	params.Product, params.AmbiguousProduct = Product(normalized)
	if params.Product == "" && !params.AmbiguousProduct {
		params.Product = inferHOSOFromSizes(params.Sizes)
	}

	params.GlazingPercentage = Glazing(normalized)
	params.FreightValue = FreightValue(normalized)
	params.DDP = HasDDP(normalized)
	params.FreightRequested = params.DDP || params.FreightValue != nil || mentionsFreight(normalized)

	params.Destination, params.UsesPounds = Destination(normalized)
	params.Quantity = ParseQuantity(normalized)

	return params
}

// Normalize lowercases and strips accents so the pattern tables stay small.
// The original casing is preserved by callers that need it (client names).
func Normalize(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	replacer := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
	)
	return replacer.Replace(lower)
}

func mentionsFreight(normalized string) bool {
	return strings.Contains(normalized, "flete") ||
		strings.Contains(normalized, "freight") ||
		strings.Contains(normalized, "cfr")
}
