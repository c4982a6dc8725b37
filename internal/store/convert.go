package store

// convert.go maps between gear import values and pgtype columns. Empty
// strings and nil pointers become NULL.

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// toPgText converts a string to pgtype.Text. Blank strings are NULL.
func toPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgTextPtr converts an optional update value. Nil stays invalid; a blank
// value is also treated as "no change" by the update statement.
func toPgTextPtr(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{Valid: false}
	}
	return toPgText(*s)
}

// toPgInt8 converts an optional id to pgtype.Int8.
func toPgInt8(id *int64) pgtype.Int8 {
	if id == nil {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Int64: *id, Valid: true}
}

// toPgNumeric converts a weight in kilograms to a numeric(10,3) value.
func toPgNumeric(kg float64) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(strconv.FormatFloat(kg, 'f', 3, 64)); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// toPgNumericPtr converts an optional weight.
func toPgNumericPtr(kg *float64) pgtype.Numeric {
	if kg == nil {
		return pgtype.Numeric{Valid: false}
	}
	return toPgNumeric(*kg)
}
