package extract

import (
	"regexp"
	"strings"
)

// Canonical product codes as they appear in the price list.
const (
	ProductHOSO            = "HOSO"
	ProductHLSO            = "HLSO"
	ProductPDIQF           = "P&D IQF"
	ProductPDBlock         = "P&D BLOQUE"
	ProductPuDEuropa       = "PuD-EUROPA"
	ProductPuDUSA          = "PuD-EEUU"
	ProductEZPeel          = "EZ PEEL"
	ProductCooked          = "COOKED"
	ProductPreCooked       = "PRE-COOKED"
	ProductUntreatedCooked = "UNTREATED-COOKED"
)

// productSynonyms maps whole-word synonyms to a canonical code. Scanned in
// order so multi-word synonyms win over their substrings ("cocido sin
// tratar" before "cocido").
var productSynonyms = []struct {
	phrase string
	code   string
}{
	{"cocido sin tratar", ProductUntreatedCooked},
	{"untreated cooked", ProductUntreatedCooked},
	{"pre-cocido", ProductPreCooked},
	{"precocido", ProductPreCooked},
	{"pre-cooked", ProductPreCooked},
	{"precooked", ProductPreCooked},
	{"p&d iqf", ProductPDIQF},
	{"pyd iqf", ProductPDIQF},
	{"pd iqf", ProductPDIQF},
	{"p&d bloque", ProductPDBlock},
	{"pd bloque", ProductPDBlock},
	{"bloque", ProductPDBlock},
	{"block", ProductPDBlock},
	{"pud europa", ProductPuDEuropa},
	{"pud-europa", ProductPuDEuropa},
	{"pud eeuu", ProductPuDUSA},
	{"pud-eeuu", ProductPuDUSA},
	{"pud usa", ProductPuDUSA},
	{"ez peel", ProductEZPeel},
	{"easy peel", ProductEZPeel},
	{"hoso", ProductHOSO},
	{"con cabeza", ProductHOSO},
	{"head on", ProductHOSO},
	{"hlso", ProductHLSO},
	{"sin cabeza", ProductHLSO},
	{"headless", ProductHLSO},
	{"iqf", ProductPDIQF},
	{"cocido", ProductCooked},
	{"cooked", ProductCooked},
}

// KnownProducts lists the canonical product codes in price-list order.
func KnownProducts() []string {
	return []string{
		ProductHOSO, ProductHLSO, ProductPDIQF, ProductPDBlock,
		ProductPuDEuropa, ProductPuDUSA, ProductEZPeel,
		ProductCooked, ProductPreCooked, ProductUntreatedCooked,
	}
}

// CanonicalProduct uppercases the name and reports whether it is one of
// the known product codes.
func CanonicalProduct(name string) (string, bool) {
	candidate := strings.ToUpper(strings.TrimSpace(name))
	for _, code := range KnownProducts() {
		if candidate == code {
			return code, true
		}
	}
	return "", false
}

// wholeWords marks descriptors for whole (head-on) shrimp. "inteiro" shows
// up from Brazilian buyers.
var wholeWords = []string{"entero", "enteros", "inteiro", "inteiros", "whole"}

// tailWords marks descriptors for tails.
var tailWords = []string{"colas", "cola", "tails", "tail"}

// cookWords are processing descriptors that make whole-vs-tails ambiguous.
var cookWords = []string{"cocido", "cocidos", "cocida", "cocidas", "precocido", "cooked", "precooked"}

// Product matches the text against the product vocabulary. When the text
// combines a whole descriptor and a tail descriptor with a cooking word,
// the request is ambiguous and no product is chosen; the conversation layer
// must ask which product belongs to which group.
func Product(normalized string) (code string, ambiguous bool) {
	if containsAnyWord(normalized, wholeWords) &&
		containsAnyWord(normalized, tailWords) &&
		containsAnyWord(normalized, cookWords) {
		return "", true
	}

	for _, synonym := range productSynonyms {
		if containsPhrase(normalized, synonym.phrase) {
			return synonym.code, false
		}
	}

	// Bare whole/tail descriptors still identify a product.
	if containsAnyWord(normalized, wholeWords) {
		return ProductHOSO, false
	}
	if containsAnyWord(normalized, tailWords) {
		return ProductHLSO, false
	}

	return "", false
}

// hosoExclusiveSizes are counts only sold head-on; a size in this set with
// no stated product implies HOSO.
var hosoExclusiveSizes = map[string]bool{
	"20/30": true,
	"30/40": true,
	"40/50": true,
	"50/60": true,
	"60/70": true,
	"70/80": true,
}

func inferHOSOFromSizes(sizes []string) string {
	for _, size := range sizes {
		if hosoExclusiveSizes[size] {
			return ProductHOSO
		}
	}
	return ""
}

// clarificationSplitRegex cuts a clarification reply into one segment per
// group: "HOSO para entero y COOKED para colas" yields two segments.
var clarificationSplitRegex = regexp.MustCompile(`\s*(?:,|;|\band\b|\by\b)\s*`)

// ParseProductClarification resolves an explicit product-per-group reply
// such as "HOSO para entero y COOKED para colas". Each segment must name
// one group (whole or tails) and one product; both groups must be covered.
func ParseProductClarification(text string) (whole, tails string, ok bool) {
	normalized := Normalize(text)

	for _, segment := range clarificationSplitRegex.Split(normalized, -1) {
		isWhole := containsAnyWord(segment, wholeWords)
		isTail := containsAnyWord(segment, tailWords)
		if isWhole == isTail {
			continue
		}

		product := firstProduct(segment)
		if product == "" {
			continue
		}
		if isWhole {
			whole = product
		} else {
			tails = product
		}
	}

	if whole == "" || tails == "" {
		return "", "", false
	}
	return whole, tails, true
}

// firstProduct matches the vocabulary without the whole/tails inference,
// since clarification segments name the group explicitly.
func firstProduct(segment string) string {
	for _, synonym := range productSynonyms {
		if containsPhrase(segment, synonym.phrase) {
			return synonym.code
		}
	}
	return ""
}

// ContainsPhrase reports whether phrase occurs in text on word boundaries,
// so "menu" never matches inside "menudo" nor "hi" inside "chicago".
func ContainsPhrase(text, phrase string) bool {
	return containsPhrase(text, phrase)
}

func containsPhrase(text, phrase string) bool {
	idx := strings.Index(text, phrase)
	for idx >= 0 {
		if isWordBoundary(text, idx, len(phrase)) {
			return true
		}
		next := strings.Index(text[idx+1:], phrase)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func containsAnyWord(text string, words []string) bool {
	return indexAnyWord(text, words) >= 0
}

func indexAnyWord(text string, words []string) int {
	for _, word := range words {
		idx := strings.Index(text, word)
		for idx >= 0 {
			if isWordBoundary(text, idx, len(word)) {
				return idx
			}
			next := strings.Index(text[idx+1:], word)
			if next < 0 {
				break
			}
			idx += 1 + next
		}
	}
	return -1
}

func isWordBoundary(text string, start, length int) bool {
	if start > 0 && isWordChar(text[start-1]) {
		return false
	}
	end := start + length
	if end < len(text) && isWordChar(text[end]) {
		return false
	}
	return true
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
