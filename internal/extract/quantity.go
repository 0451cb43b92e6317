package extract

import (
	"regexp"
	"strings"
)

var (
	quantityRegex = regexp.MustCompile(`(\d{1,7}(?:[.,]\d{1,3})?)\s*(lbs?|libras?|kgs?|kilos?|kilogramos?|tons?|toneladas?|tm)\b`)
	kPerBoxRegex  = regexp.MustCompile(`(\d{1,4}(?:[.,]\d{1,3})?)\s*k\s*/\s*box`)
)

// ParseQuantity finds an amount with a unit. "k/box" is the packer
// shorthand for thousands of kilograms per box and expands via KgPerBox.
func ParseQuantity(normalized string) *Quantity {
	if match := kPerBoxRegex.FindStringSubmatch(normalized); match != nil {
		if value, ok := parseDecimal(match[1]); ok {
			return &Quantity{Value: value, Unit: "k/box", KgPerBox: value * 1000}
		}
	}

	match := quantityRegex.FindStringSubmatch(normalized)
	if match == nil {
		return nil
	}
	value, ok := parseDecimal(match[1])
	if !ok {
		return nil
	}
	return &Quantity{Value: value, Unit: normalizeUnit(match[2])}
}

func normalizeUnit(raw string) string {
	switch {
	case strings.HasPrefix(raw, "lb"), strings.HasPrefix(raw, "libra"):
		return "lb"
	case strings.HasPrefix(raw, "ton"), raw == "tm":
		return "ton"
	default:
		return "kg"
	}
}
