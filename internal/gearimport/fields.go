package gearimport

import "strings"

type fieldRule struct {
	field    Field
	patterns []string
}

// fieldRules are tried in order; the first rule with a matching substring wins.
var fieldRules = []fieldRule{
	{FieldName, []string{"name", "item"}},
	{FieldBrand, []string{"brand", "manufacturer", "maker"}},
	{FieldModel, []string{"model", "version"}},
	{FieldWeight, []string{"weight", "mass", "kg", "kilogram"}},
	{FieldCategory, []string{"category", "type", "class"}},
	{FieldNotes, []string{"note", "description", "comment", "detail"}},
}

// MatchField guesses the gear field a header names. Headers matching no
// rule map to FieldSkip.
func MatchField(header string) Field {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return FieldSkip
	}
	for _, rule := range fieldRules {
		for _, p := range rule.patterns {
			if strings.Contains(h, p) {
				return rule.field
			}
		}
	}
	return FieldSkip
}

// SuggestMapping pre-fills the mapping form. Each field gets the first
// header that matches it, or "skip".
func SuggestMapping(headers []string) map[Field]string {
	suggested := make(map[Field]string, len(Fields))
	for _, f := range Fields {
		suggested[f] = string(FieldSkip)
	}

	taken := make(map[Field]bool, len(Fields))
	for _, h := range headers {
		f := MatchField(h)
		if f == FieldSkip || taken[f] {
			continue
		}
		suggested[f] = strings.TrimSpace(h)
		taken[f] = true
	}
	return suggested
}
