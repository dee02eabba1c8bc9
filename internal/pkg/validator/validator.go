package validator

import (
	"regexp"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email validation
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// Run business IDs look like PR-2025-0007: four-digit year, four-digit
// zero-padded sequence that resets each year.
var runIDRegex = regexp.MustCompile(`^PR-\d{4}-\d{4}$`)

func IsValidRunID(id string) bool {
	return runIDRegex.MatchString(id)
}

// Entity descriptors carry the currency inline: "Acme GmbH|EUR".
var entityRegex = regexp.MustCompile(`^[^|]+\|[A-Z]{3}$`)

func IsValidEntity(entity string) bool {
	return entityRegex.MatchString(entity)
}

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

func IsValidCurrencyCode(code string) bool {
	return currencyRegex.MatchString(code)
}

// Numeric validation
var numericRegex = regexp.MustCompile(`^[0-9]+$`)

func IsNumeric(s string) bool {
	return numericRegex.MatchString(s)
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

// Period validation: a payroll period is addressed as "YYYY-MM" and
// normalised to the first day of the month.
func IsValidPeriod(periodStr string) (time.Time, bool) {
	period, err := time.Parse("2006-01", periodStr)
	if err != nil {
		return time.Time{}, false
	}
	return period, true
}

// Slice contains check
func IsInSlice(value string, slice []string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}
