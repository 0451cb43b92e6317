package extract

import "strings"

type destinationInfo struct {
	name       string
	usesPounds bool
	aliases    []string
}

// destinations is the known port/city table. US destinations quote per
// pound, with Houston as the long-standing kilogram exception. Aliases
// absorb the typos that actually show up in buyer messages.
var destinations = []destinationInfo{
	{name: "Houston", usesPounds: false, aliases: []string{"houston", "houton", "huston"}},
	{name: "Miami", usesPounds: true, aliases: []string{"miami", "maiami", "mayami"}},
	{name: "New York", usesPounds: true, aliases: []string{"new york", "nueva york", "newyork"}},
	{name: "Los Angeles", usesPounds: true, aliases: []string{"los angeles", "losangeles"}},
	{name: "Chicago", usesPounds: true, aliases: []string{"chicago", "chicaco"}},
	{name: "Dallas", usesPounds: true, aliases: []string{"dallas", "dalas"}},
	{name: "Savannah", usesPounds: true, aliases: []string{"savannah", "savana"}},
	{name: "Rotterdam", usesPounds: false, aliases: []string{"rotterdam", "roterdam"}},
	{name: "Le Havre", usesPounds: false, aliases: []string{"le havre", "havre"}},
	{name: "Madrid", usesPounds: false, aliases: []string{"madrid"}},
	{name: "Barcelona", usesPounds: false, aliases: []string{"barcelona"}},
	{name: "Vigo", usesPounds: false, aliases: []string{"vigo"}},
	{name: "Shanghai", usesPounds: false, aliases: []string{"shanghai", "sanghai"}},
	{name: "Qingdao", usesPounds: false, aliases: []string{"qingdao"}},
	{name: "Tokyo", usesPounds: false, aliases: []string{"tokyo", "tokio"}},
}

// Destination recognizes a destination city and whether it quotes in
// pounds. Empty name means no destination was found.
func Destination(normalized string) (name string, usesPounds bool) {
	for _, dest := range destinations {
		for _, alias := range dest.aliases {
			if containsPhrase(normalized, alias) {
				return dest.name, dest.usesPounds
			}
		}
	}
	return "", false
}

// KnownDestinations lists the recognized destination names, for prompts.
func KnownDestinations() []string {
	names := make([]string, 0, len(destinations))
	for _, dest := range destinations {
		names = append(names, dest.name)
	}
	return names
}

// normalizeDestination maps any alias back to the canonical name; used by
// the fallback classifier merge so an LLM-provided city matches the table.
func NormalizeDestination(raw string) (string, bool) {
	normalized := Normalize(raw)
	for _, dest := range destinations {
		for _, alias := range dest.aliases {
			if normalized == alias {
				return dest.name, dest.usesPounds
			}
		}
	}
	return strings.TrimSpace(raw), false
}
