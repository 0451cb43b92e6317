package extract

import (
	"regexp"
	"strings"
)

// Language detection is a two-bucket heuristic, not a translation engine.
// Messages score a point per marker word; ties and empty scores stay
// undecided so the session keeps its previous preference.
var (
	spanishMarkers = []string{
		"hola", "buenas", "buenos dias", "precio", "precios", "cotizacion",
		"cotizar", "proforma", "quiero", "necesito", "gracias", "por favor",
		"camaron", "talla", "cuanto",
	}
	englishMarkers = []string{
		"hello", "hi", "good morning", "price", "prices", "quote",
		"quotation", "i want", "i need", "thanks", "thank you", "please",
		"shrimp", "size", "how much",
	}
)

// DetectLanguage returns "es", "en" or "" when undecidable.
func DetectLanguage(normalized string) string {
	spanish, english := 0, 0
	for _, marker := range spanishMarkers {
		if strings.Contains(normalized, marker) {
			spanish++
		}
	}
	for _, marker := range englishMarkers {
		if strings.Contains(normalized, marker) {
			english++
		}
	}

	switch {
	case spanish > english:
		return "es"
	case english > spanish:
		return "en"
	default:
		return ""
	}
}

var clientNameRegex = regexp.MustCompile(`(?:para(?:\s+el)?\s+cliente|cliente|para|for(?:\s+client)?)\s+([A-ZÁÉÍÓÚÑ][\p{L}\d.&'-]*(?:\s+[A-ZÁÉÍÓÚÑ][\p{L}\d.&'-]*){0,3})`)

// ClientName captures "para <Name>" style mentions. Works on the original
// casing so capitalized names are distinguishable from ordinary words.
func ClientName(text string) string {
	match := clientNameRegex.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	name := strings.TrimSpace(match[1])
	// "para Miami" is a destination, not a client.
	if dest, _ := Destination(Normalize(name)); dest != "" {
		return ""
	}
	return name
}

// ParseLanguageSelection interprets a two-way language menu reply, by
// number or by name token in either language.
func ParseLanguageSelection(text string) (string, bool) {
	normalized := Normalize(text)
	switch {
	case normalized == "1", containsPhrase(normalized, "espanol"), containsPhrase(normalized, "spanish"), normalized == "es":
		return "es", true
	case normalized == "2", containsPhrase(normalized, "ingles"), containsPhrase(normalized, "english"), normalized == "en":
		return "en", true
	}
	return "", false
}

var menuNumberRegex = regexp.MustCompile(`^\s*(\d{1,2})\s*[).]?\s*$`)

// MenuSelection parses a bare numbered reply to an interactive menu,
// returning the 1-based option index.
func MenuSelection(text string) (int, bool) {
	match := menuNumberRegex.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return 0, false
	}
	n := 0
	for _, ch := range match[1] {
		n = n*10 + int(ch-'0')
	}
	if n < 1 {
		return 0, false
	}
	return n, true
}
