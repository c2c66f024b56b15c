package scraper

import (
	"regexp"
	"strings"
)

// decorativeWords mark images that are page chrome rather than editorial art.
var decorativeWords = []string{
	"logo", "icon", "sprite", "badge", "avatar", "tracking", "pixel", "spacer",
}

func isDecorative(parts ...string) bool {
	for _, p := range parts {
		p = strings.ToLower(p)
		for _, w := range decorativeWords {
			if strings.Contains(p, w) {
				return true
			}
		}
	}
	return false
}

type junkRule struct {
	name    string
	pattern *regexp.Regexp
	replace string
}

var decorativeAlternation = strings.Join(decorativeWords, "|")

// junkRules run in order over the converted markdown body.
var junkRules = []junkRule{
	{
		name:    "navigation",
		pattern: regexp.MustCompile(`(?im)^[ \t]*(?:skip to (?:main )?content|share (?:this|on) (?:story|article|facebook|twitter|x|email)|click to share[^\n]*|follow us on [^\n]*|sign up for (?:our )?(?:free )?newsletters?[^\n]*|subscribe (?:now|today)[^\n]*|advertisement|menu|search|log ?in|sign in|print this (?:page|article|story)|back to top)[ \t]*$\n?`),
	},
	{
		name:    "app download",
		pattern: regexp.MustCompile(`(?im)^[^\n]*\b(?:download (?:our|the) (?:free )?(?:[\w-]+ )?app|get the (?:[\w-]+ )?app|available on the app store)\b[^\n]*$\n?`),
	},
	{
		name:    "related trailer",
		pattern: regexp.MustCompile(`(?is)(?:^|\n)[ \t]*(?:#+[ \t]*|\*\*|__)?(?:related|more) (?:articles|stories|coverage|content)[ \t]*:?[ \t]*(?:\*\*|__)?[ \t]*(?:\n.*)?$`),
	},
	{
		name:    "post appeared first",
		pattern: regexp.MustCompile(`(?im)^[^\n]*\bthe post\b[^\n]*\bappeared first on\b[^\n]*$\n?`),
	},
	{
		name:    "continue reading",
		pattern: regexp.MustCompile(`(?i)\[[^\]\n]*continue reading[^\]\n]*\]\([^)\n]*\)|(?:continue|keep) reading(?:[ \t]*(?:→|»|\.\.\.|…))?`),
	},
	{
		name:    "punctuation rule",
		pattern: regexp.MustCompile(`(?m)^[ \t]*[-=_*~.•·#]{4,}[ \t]*$\n?`),
	},
	{
		name:    "repeated punctuation",
		pattern: regexp.MustCompile(`!{2,}`),
		replace: "!",
	},
	{
		name:    "repeated question marks",
		pattern: regexp.MustCompile(`\?{2,}`),
		replace: "?",
	},
	{
		name: "decorative image",
		pattern: regexp.MustCompile(`(?i)!\[[^\]]*(?:` + decorativeAlternation + `)[^\]]*\]\([^)]*\)` +
			`|!\[[^\]]*\]\([^)]*(?:` + decorativeAlternation + `)[^)]*\)`),
	},
	{
		name:    "empty link",
		pattern: regexp.MustCompile(`\[\s*\]\([^)]*\)`),
	},
}

var (
	trailingSpaces = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRuns      = regexp.MustCompile(`\n{3,}`)
)

// cleanMarkdown strips syndication junk from a converted body.
func cleanMarkdown(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	for _, rule := range junkRules {
		body = rule.pattern.ReplaceAllString(body, rule.replace)
	}
	body = trailingSpaces.ReplaceAllString(body, "")
	body = blankRuns.ReplaceAllString(body, "\n\n")
	return strings.TrimSpace(body)
}

var headingPrefix = regexp.MustCompile(`^(?:#{1,6}[ \t]+)?(?:\*\*|__)?`)

// stripLeadingTitle removes the title when the body repeats it first,
// either as a plain line or as a markdown heading.
func stripLeadingTitle(body, title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" || body == "" {
		return body
	}

	first, rest, _ := strings.Cut(body, "\n")
	line := headingPrefix.ReplaceAllString(strings.TrimSpace(first), "")
	line = strings.TrimRight(line, "*_ ")
	if strings.EqualFold(strings.Join(strings.Fields(line), " "), title) {
		return strings.TrimSpace(rest)
	}

	if len(body) >= len(title) && strings.EqualFold(body[:len(title)], title) {
		return strings.TrimLeft(body[len(title):], " \t\n:-–—,.|")
	}
	return body
}

var (
	mdImage    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLink     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdHeading  = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	mdEmphasis = regexp.MustCompile(`\*\*|__`)
)

const excerptRunes = 300

// makeExcerpt returns a plain-text preview of a markdown body.
func makeExcerpt(body string) string {
	text := mdImage.ReplaceAllString(body, "")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdEmphasis.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= excerptRunes {
		return text
	}
	return strings.TrimSpace(string(runes[:excerptRunes])) + "..."
}
