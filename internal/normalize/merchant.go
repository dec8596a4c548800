package normalize

import (
	"regexp"
	"strings"
)

// Legal-entity suffixes stripped from merchant names before fingerprinting.
// Longer phrases first so "pvt ltd" is removed before "ltd" alone.
var legalSuffixes = []string{
	"pvt ltd",
	"pvt. ltd.",
	"pvt. ltd",
	"private limited",
	"limited",
	"ltd.",
	"ltd",
	"inc.",
	"inc",
	"llc",
	"llp",
	"corp.",
	"corp",
	"co.",
	"gmbh",
	"plc",
	"pvt",
	"enterprises",
	"services",
}

var reWS = regexp.MustCompile(`\s+`)

// Merchant canonicalizes a merchant name into a comparable key:
// lowercase, legal-entity suffixes stripped as whole words, whitespace collapsed.
// "Nayara Energy Pvt Ltd" and "NAYARA ENERGY" both become "nayara energy".
func Merchant(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = reWS.ReplaceAllString(s, " ")
	for _, suf := range legalSuffixes {
		for {
			trimmed := stripWholeWord(s, suf)
			if trimmed == s {
				break
			}
			s = trimmed
		}
	}
	return strings.TrimSpace(reWS.ReplaceAllString(s, " "))
}

// stripWholeWord removes suf from s when it appears as a whole word
// (surrounded by start/end of string or whitespace).
func stripWholeWord(s, suf string) string {
	idx := strings.Index(s, suf)
	for idx >= 0 {
		before := idx == 0 || s[idx-1] == ' '
		end := idx + len(suf)
		after := end == len(s) || s[end] == ' '
		if before && after {
			return strings.TrimSpace(s[:idx] + s[end:])
		}
		next := strings.Index(s[idx+1:], suf)
		if next < 0 {
			break
		}
		idx = idx + 1 + next
	}
	return s
}
