package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Render substitutes every {username} and {user} placeholder in tpl with
// username. Nothing else in tpl is altered.
func Render(tpl, username string) string {
	// {username} is listed first so it wins over its {user} prefix.
	return strings.NewReplacer("{username}", username, "{user}", username).Replace(tpl)
}

// foldCaser lowercases with Unicode rules; a Caser is not safe for
// concurrent use, so MatchKeyword builds one per call.
func foldCaser() cases.Caser { return cases.Lower(language.Und) }

// MatchKeyword returns the first response whose keywords contain a
// case-insensitive substring match in text. Order of rules decides ties.
func MatchKeyword(rules []KeywordResponse, text string) (*KeywordResponse, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}
	c := foldCaser()
	lower := c.String(text)
	for i := range rules {
		for _, kw := range rules[i].Keywords {
			k := c.String(strings.TrimSpace(kw))
			if k != "" && strings.Contains(lower, k) {
				return &rules[i], true
			}
		}
	}
	return nil, false
}
