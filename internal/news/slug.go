package news

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a title into the file stem used as the story identity.
// It may return "" for titles with no ASCII letters or digits.
func Slugify(title string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}
