// Package check holds the value predicates used by field validators.
package check

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reNonDigit = regexp.MustCompile(`\D`)
	reEmail    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Phone accepts any formatting as long as 10 or 11 digits remain once
// everything else is stripped, e.g. "(555) 123-4567" or "+1 555 123 4567".
func Phone(phone string) bool {
	if phone == "" {
		return false
	}
	n := len(reNonDigit.ReplaceAllString(phone, ""))
	return n == 10 || n == 11
}

func Email(email string) bool {
	return email != "" && reEmail.MatchString(email)
}

// DateNotFuture reports whether a YYYY-MM-DD date is today or earlier.
// Empty and unparseable dates pass; they are not this check's concern.
func DateNotFuture(date string, now time.Time) bool {
	if date == "" {
		return true
	}
	d, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return true
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, now.Location())
	return !d.After(today)
}

// NumberRange reports whether value parses as a number within the given
// bounds. A nil bound is open.
func NumberRange(value string, min, max *float64) bool {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false
	}
	if min != nil && n < *min {
		return false
	}
	if max != nil && n > *max {
		return false
	}
	return true
}
