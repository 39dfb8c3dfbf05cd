package coupons

import (
	"net/url"
	"strings"
	"time"
)

// Filters contains optional filtering criteria for coupon queries.
// Status uses exact matching; Code uses contains matching.
type Filters struct {
	Status *Status `json:"status,omitempty"`
	Code   *string `json:"code,omitempty"`
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		status := Status(strings.ToLower(s))
		f.Status = &status
	}

	if c := values.Get("code"); c != "" {
		code := strings.ToUpper(c)
		f.Code = &code
	}

	return f
}

// Matches reports whether c satisfies the filters and an optional search term.
// Used by stores that filter in memory.
func (f Filters) Matches(c Coupon, search string) bool {
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	if f.Code != nil && !strings.Contains(c.Code, *f.Code) {
		return false
	}
	if search != "" {
		term := strings.ToUpper(search)
		if !strings.Contains(strings.ToUpper(c.Code), term) &&
			!strings.Contains(strings.ToUpper(c.SubmittedBy), term) {
			return false
		}
	}
	return true
}

// timestampLayout matches JavaScript's Date.toISOString, the format used by
// the tooling that creates records.
const timestampLayout = "2006-01-02T15:04:05.000Z"

var looseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp accepts RFC 3339 values and offset-less ISO 8601 values,
// which are interpreted as UTC. Empty or unparseable input yields the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range looseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
