// Package htmlsanitize cleans user-supplied text before it is stored.
//
// Opportunity and profile descriptions may carry basic formatting and go
// through Sanitize (bluemonday UGC policy). Short fields such as titles and
// feedback notes go through Strip, which removes all markup.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcOnce   sync.Once
	ugcPolicy *bluemonday.Policy

	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy
)

func ugc() *bluemonday.Policy {
	ugcOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td")
		p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
		ugcPolicy = p
	})
	return ugcPolicy
}

func strict() *bluemonday.Policy {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// Sanitize removes scripts, event handlers, and unsafe URLs while keeping
// basic formatting, lists, links, and tables.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugc().Sanitize(s)
}

// Strip removes every tag and returns trimmed plain text. Entities produced
// by the policy are unescaped so the stored value reads as typed.
func Strip(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict().Sanitize(s)))
}

// IsPlainText reports whether s contains no HTML tags.
func IsPlainText(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '<' {
			continue
		}
		if i+1 < len(s) {
			c := s[i+1]
			if c == '/' || c == '!' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
				return false
			}
		}
	}
	return true
}

// TooLong reports whether s exceeds max characters.
func TooLong(s string, max int) bool {
	return max > 0 && utf8.RuneCountInString(s) > max
}
