package utils

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultJobTimeout applies when a job carries no parseable timeout
const DefaultJobTimeout = 5 * time.Minute

// ParseDuration safely parses duration string like "5m"
func ParseDuration(d string) time.Duration {
	if d == "" {
		return DefaultJobTimeout
	}
	duration, err := time.ParseDuration(d)
	if err != nil || duration <= 0 {
		return DefaultJobTimeout
	}
	return duration
}

// ParseValue turns a raw text cell into a typed value: int64 when the text
// is an integer, decimal.Decimal when it is any other number, otherwise
// the trimmed string. Blank text becomes nil.
func ParseValue(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// try int
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	// try decimal
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	return s
}

// CleanHeader trims whitespace and removes all quotes from a header cell
func CleanHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(h)
	return strings.ReplaceAll(h, `"`, "")
}
