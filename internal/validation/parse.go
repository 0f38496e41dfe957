package validation

import (
	"strconv"
	"strings"
	"time"
)

// Date layouts accepted from operators: the HTML date input and the layout
// printed on receipts.
var dateLayouts = []string{"2006-01-02", "02/01/2006"}

// ParseDate reads a calendar date. An empty string yields the zero time so
// that the required rule reports it.
func ParseDate(field, s string) (time.Time, *ValidationError) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &ValidationError{
		Field:   field,
		Value:   s,
		Rule:    "date_format",
		Message: "Enter the date as YYYY-MM-DD or DD/MM/YYYY.",
	}
}

// ParsePrice reads a whole Rupiah amount. Dots, commas, spaces and an "Rp"
// prefix are ignored, so "Rp100.000" and "100000" are the same price. An
// empty string yields 0 so that the price rule reports it.
func ParsePrice(field, s string) (int64, *ValidationError) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(strings.TrimPrefix(cleaned, "Rp"), "rp")
	cleaned = strings.NewReplacer(".", "", ",", "", " ", "").Replace(cleaned)
	if cleaned == "" {
		return 0, nil
	}

	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, &ValidationError{
			Field:   field,
			Value:   s,
			Rule:    "number",
			Message: "Price must be a whole number of Rupiah.",
		}
	}
	return n, nil
}

// MergeErrors appends rule violations to conversion errors, skipping rules on
// fields whose text could not be converted in the first place.
func MergeErrors(parseErrs, ruleErrs []*ValidationError) []*ValidationError {
	failed := make(map[string]bool, len(parseErrs))
	for _, e := range parseErrs {
		failed[e.Field] = true
	}

	merged := append([]*ValidationError(nil), parseErrs...)
	for _, e := range ruleErrs {
		if !failed[e.Field] {
			merged = append(merged, e)
		}
	}
	return merged
}
