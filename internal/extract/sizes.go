package extract

import (
	"regexp"
	"strings"
)

var (
	// rangeSizeRegex matches "16/20" style codes, tolerating "-" and
	// space separators which are normalized to "/".
	rangeSizeRegex = regexp.MustCompile(`\b(\d{1,3})\s*[/\-]\s*(\d{1,3})\b`)
	// uSizeRegex matches "U15" style under-count codes.
	uSizeRegex = regexp.MustCompile(`\b[uU]\s?(\d{1,2})\b`)
)

// Sizes returns every size code found, normalized and deduplicated, in
// order of appearance. Two or more codes mean a multi-item request.
func Sizes(normalized string) []string {
	var sizes []string
	seen := make(map[string]bool)

	add := func(code string) {
		if !seen[code] {
			seen[code] = true
			sizes = append(sizes, code)
		}
	}

	for _, match := range uSizeRegex.FindAllStringSubmatch(normalized, -1) {
		add("U" + match[1])
	}
	for _, match := range rangeSizeRegex.FindAllStringSubmatch(normalized, -1) {
		add(match[1] + "/" + match[2])
	}

	return sizes
}

// SplitItems builds one line item per size code. Each size looks for a
// product mention within 50 characters of its position; items with no
// nearby mention inherit the message-level product.
func SplitItems(normalized string, messageProduct string) []Item {
	type located struct {
		code  string
		start int
	}
	var found []located
	seen := make(map[string]bool)

	for _, loc := range uSizeRegex.FindAllStringSubmatchIndex(normalized, -1) {
		code := "U" + normalized[loc[2]:loc[3]]
		if !seen[code] {
			seen[code] = true
			found = append(found, located{code: code, start: loc[0]})
		}
	}
	for _, loc := range rangeSizeRegex.FindAllStringSubmatchIndex(normalized, -1) {
		code := normalized[loc[2]:loc[3]] + "/" + normalized[loc[4]:loc[5]]
		if !seen[code] {
			seen[code] = true
			found = append(found, located{code: code, start: loc[0]})
		}
	}

	items := make([]Item, 0, len(found))
	for _, f := range found {
		context := window(normalized, f.start, 50)
		product, ambiguous := Product(context)
		if product == "" || ambiguous {
			product = messageProduct
		}
		if product == "" {
			product = inferHOSOFromSizes([]string{f.code})
		}
		items = append(items, Item{Product: product, Size: f.code})
	}
	return items
}

// GroupAmbiguousSizes splits the size codes of a whole-vs-tails message
// into the group each code was written under: sizes after the whole
// descriptor belong to the whole group, sizes after the tail descriptor to
// the tail group. When the text gives no usable ordering the list is split
// in half, tails taking the larger share.
func GroupAmbiguousSizes(normalized string) (whole, tails []string) {
	sizes := Sizes(normalized)
	if len(sizes) == 0 {
		return nil, nil
	}

	wholeAt := indexAnyWord(normalized, wholeWords)
	tailAt := indexAnyWord(normalized, tailWords)

	if wholeAt >= 0 && tailAt >= 0 {
		for _, loc := range rangeSizeRegex.FindAllStringSubmatchIndex(normalized, -1) {
			code := normalized[loc[2]:loc[3]] + "/" + normalized[loc[4]:loc[5]]
			if distance(loc[0], wholeAt) <= distance(loc[0], tailAt) {
				whole = appendUnique(whole, code)
			} else {
				tails = appendUnique(tails, code)
			}
		}
		if len(whole) > 0 || len(tails) > 0 {
			return whole, tails
		}
	}

	half := len(sizes) / 2
	return sizes[:half], sizes[half:]
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func appendUnique(list []string, code string) []string {
	for _, have := range list {
		if have == code {
			return list
		}
	}
	return append(list, code)
}

func window(text string, center, radius int) string {
	start := center - radius
	if start < 0 {
		start = 0
	}
	end := center + radius
	if end > len(text) {
		end = len(text)
	}
	return strings.ToValidUTF8(text[start:end], "")
}
