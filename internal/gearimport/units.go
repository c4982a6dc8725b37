package gearimport

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var kgPerUnit = map[WeightUnit]float64{
	UnitKilograms: 1,
	UnitGrams:     0.001,
	UnitPounds:    0.453592,
	UnitOunces:    0.0283495,
}

// ParseWeightUnit accepts kg, g, lbs and oz. Empty means kg.
func ParseWeightUnit(s string) (WeightUnit, error) {
	u := WeightUnit(strings.ToLower(strings.TrimSpace(s)))
	if u == "" {
		return UnitKilograms, nil
	}
	if _, ok := kgPerUnit[u]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidWeightUnit, s)
	}
	return u, nil
}

// ConvertWeight converts v from unit to kilograms, rounded to 3 decimals.
// Unknown units are treated as kilograms.
func ConvertWeight(v float64, unit WeightUnit) float64 {
	switch factor, ok := kgPerUnit[unit]; {
	case unit == UnitGrams:
		v /= 1000
	case ok:
		v *= factor
	}
	return roundKg(v)
}

func roundKg(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// weightPattern captures the leading number of a cell such as "1.2 kg",
// "1,250g" or "1e3". Separators are only accepted between groups of three
// digits.
var weightPattern = regexp.MustCompile(`^[+-]?(?:(?:\d{1,3}(?:[ ,']\d{3})+|\d+)(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseWeight reads a spreadsheet weight cell. Thousands separators, a
// decimal comma and trailing unit text are tolerated. A number followed by
// more digits or separators, as in "1 1/2" or "1,2,3", is rejected.
func ParseWeight(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, fmt.Errorf("weight is blank")
	}

	// "0,5" is a decimal comma, "1,250" a thousands separator.
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		if i := strings.Index(s, ","); len(digitsAfter(s[i+1:])) != 3 {
			s = s[:i] + "." + s[i+1:]
		}
	}

	m := weightPattern.FindString(s)
	if m == "" || !unitSuffix(s[len(m):]) {
		return 0, fmt.Errorf("weight %q is not a number", cell)
	}
	m = strings.NewReplacer(",", "", "'", "", " ", "").Replace(m)

	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("weight %q is not a number", cell)
	}
	return v, nil
}

// unitSuffix reports whether rest, the text after the number, can only be
// unit text.
func unitSuffix(rest string) bool {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return true
	}
	switch c := rest[0]; {
	case c >= '0' && c <= '9':
		return false
	case strings.IndexByte(".,'/", c) >= 0:
		return false
	}
	return true
}

func digitsAfter(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
