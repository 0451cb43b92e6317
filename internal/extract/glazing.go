package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Layered glazing patterns, in priority order. The explicit glaseo/glazing
// wording wins; an "al N%" or bare "N%" form is only consulted after.
var (
	glazingExplicitRegex = regexp.MustCompile(`(?:glaseo|glaseado|glazing|glaze)\s*(?:de|del|al|at|:)?\s*(\d{1,3})\s*%?`)
	glazingPrefixRegex   = regexp.MustCompile(`(\d{1,3})\s*%\s*(?:de\s+)?(?:glaseo|glaseado|glazing|glaze)`)
	glazingAtRegex       = regexp.MustCompile(`\b(?:al|at)\s+(\d{1,3})\s*%`)
	glazingBareRegex     = regexp.MustCompile(`(\d{1,3})\s*%`)

	numberOnlyRegex = regexp.MustCompile(`^\s*(\d{1,3})\s*%?\s*$`)
)

// noGlazingPhrases are explicit "no glazing" markers; they yield 0, which
// is a valid percentage distinct from "not found".
var noGlazingPhrases = []string{"sin glaseo", "sin glaseado", "no glaze", "no glazing", "net weight", "peso neto"}

// Glazing finds a glazing percentage in the message. The returned pointer
// is nil when nothing matched; 0 means explicitly no glazing.
func Glazing(normalized string) *int {
	for _, phrase := range noGlazingPhrases {
		if strings.Contains(normalized, phrase) {
			zero := 0
			return &zero
		}
	}

	for _, re := range []*regexp.Regexp{glazingPrefixRegex, glazingExplicitRegex, glazingAtRegex, glazingBareRegex} {
		if match := re.FindStringSubmatch(normalized); match != nil {
			if value, ok := parsePercentage(match[1]); ok {
				return &value
			}
		}
	}
	return nil
}

// GlazingReply parses a reply in a state where only a glazing value is
// expected, so a bare number counts too.
func GlazingReply(text string) *int {
	normalized := Normalize(text)
	if found := Glazing(normalized); found != nil {
		return found
	}
	if match := numberOnlyRegex.FindStringSubmatch(normalized); match != nil {
		if value, ok := parsePercentage(match[1]); ok {
			return &value
		}
	}
	return nil
}

func parsePercentage(raw string) (int, bool) {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 || value > 100 {
		return 0, false
	}
	return value, true
}
