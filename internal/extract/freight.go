package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	freightValueRegex = regexp.MustCompile(`(?:flete|freight)\s*(?:de|del|a|at|:)?\s*\$?\s*(\d{1,4}(?:[.,]\d{1,4})?)`)
	freightCentsRegex = regexp.MustCompile(`(\d{1,4}(?:[.,]\d{1,4})?)\s*(?:¢|cents?|ctvs?|centavos?)`)
	decimalOnlyRegex  = regexp.MustCompile(`^\s*\$?\s*(\d{1,4}(?:[.,]\d{1,4})?)\s*$`)

	ddpRegex = regexp.MustCompile(`\bddp\b`)
)

// centsThreshold drives the cents heuristic: a parsed freight above this
// value is assumed to be cents and divided by 100. "25" becomes 0.25 while
// "0.25" stays as is. A per-kg freight above 5 USD is implausible on these
// routes; an explicit cents suffix always wins over the threshold.
const centsThreshold = 5

// FreightValue finds an explicit freight rate in the message.
// Nil means no value was stated, which is distinct from freight 0.
func FreightValue(normalized string) *float64 {
	if match := freightCentsRegex.FindStringSubmatch(normalized); match != nil {
		if value, ok := parseDecimal(match[1]); ok {
			value /= 100
			return &value
		}
	}
	if match := freightValueRegex.FindStringSubmatch(normalized); match != nil {
		if value, ok := parseDecimal(match[1]); ok {
			value = applyCentsHeuristic(value)
			return &value
		}
	}
	return nil
}

// FreightReply parses a reply in a state where only a freight value is
// expected, so a bare decimal counts too.
func FreightReply(text string) *float64 {
	normalized := Normalize(text)
	if found := FreightValue(normalized); found != nil {
		return found
	}
	if match := decimalOnlyRegex.FindStringSubmatch(normalized); match != nil {
		if value, ok := parseDecimal(match[1]); ok {
			value = applyCentsHeuristic(value)
			return &value
		}
	}
	return nil
}

// HasDDP reports an explicit delivered-duty-paid marker. DDP never
// defaults freight; the conversation layer must collect a value.
func HasDDP(normalized string) bool {
	return ddpRegex.MatchString(normalized)
}

func applyCentsHeuristic(value float64) float64 {
	if value > centsThreshold {
		return value / 100
	}
	return value
}

func parseDecimal(raw string) (float64, bool) {
	raw = strings.ReplaceAll(raw, ",", ".")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}
