package normalize

import (
	"regexp"
	"strings"
	"time"
)

var reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Ordered layouts tried for non-ISO dates. Day-first layouts come before
// month-first, matching how the upstream extractors read receipts.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"01/02/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2.1.2006",
	"2006/01/02",
	"2006.01.02",
	"02 Jan 2006",
	"2 Jan 2006",
	"02 January 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
	"2-Jan-2006",
}

// Date canonicalizes a date string to YYYY-MM-DD. Already-ISO input is kept
// as-is. If no known layout matches, the original string is returned
// unchanged so fingerprinting can still proceed on the raw value.
func Date(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if reISODate.MatchString(s) {
		return s
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
