package news

import (
	"regexp"
	"strings"
)

// keyword is a lower-case term. Single words must start at a word boundary,
// and words of three characters or fewer must match whole ("ice" never fires
// on "police"). Phrases match as plain substrings.
type keyword struct {
	text string
	re   *regexp.Regexp
}

type keywordSet []keyword

func newKeywordSet(terms ...string) keywordSet {
	set := make(keywordSet, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		k := keyword{text: t}
		switch {
		case strings.Contains(t, " "):
		case len(t) <= 3:
			k.re = regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`)
		default:
			k.re = regexp.MustCompile(`\b` + regexp.QuoteMeta(t))
		}
		set = append(set, k)
	}
	return set
}

func (k keyword) in(text string) bool {
	if k.re != nil {
		return k.re.MatchString(text)
	}
	return strings.Contains(text, k.text)
}

// count returns how many distinct terms occur in text. text must already be lower-cased.
func (s keywordSet) count(text string) int {
	n := 0
	for _, k := range s {
		if k.in(text) {
			n++
		}
	}
	return n
}

func (s keywordSet) containsAny(text string) bool {
	for _, k := range s {
		if k.in(text) {
			return true
		}
	}
	return false
}

type categoryRule struct {
	name     string
	keywords keywordSet
}

// categoryTable is evaluated in order; on equal scores the earlier entry wins.
var categoryTable = []categoryRule{
	{CategoryCrime, newKeywordSet(
		"arrest", "arrested", "police", "crash", "shooting", "shot", "murder", "homicide",
		"charged", "indicted", "sentenced", "convicted", "stabbing", "assault", "robbery",
		"burglary", "stolen", "theft", "drug", "fentanyl", "trooper", "sheriff", "jail",
		"prison", "suspect", "manslaughter", "oui", "standoff", "killed", "fatal",
	)},
	{CategoryPolitics, newKeywordSet(
		"legislature", "legislative", "lawmakers", "senate", "senator", "governor",
		"gov. mills", "janet mills", "susan collins", "angus king", "jared golden", "pingree", "election", "ballot",
		"referendum", "campaign", "congress", "lawmaker", "vote", "city council", "select board",
		"democrat", "republican", "gop", "policy",
	)},
	{CategoryBusiness, newKeywordSet(
		"business", "economy", "economic", "jobs", "layoffs", "hiring", "company",
		"companies", "restaurant", "store", "retail", "opens", "closing", "closes",
		"sales", "market", "housing", "real estate", "paper mill", "shipyard", "bath iron works",
		"lobster industry", "tourism", "startup", "investment",
	)},
	{CategoryEducation, newKeywordSet(
		"school", "schools", "student", "students", "teacher", "teachers", "university",
		"umaine", "college", "campus", "superintendent", "school board", "classroom",
		"graduation", "education", "kindergarten", "rsu", "msad", "tuition",
	)},
	{CategoryWeather, newKeywordSet(
		"weather", "storm", "snow", "snowfall", "blizzard", "nor'easter", "rain",
		"flood", "flooding", "forecast", "high winds", "wind gusts", "ice", "icy", "heat", "temperatures",
		"hurricane", "tropical storm", "power outage", "outages", "cmp",
	)},
	{CategorySports, newKeywordSet(
		"game", "season", "coach", "team", "championship", "playoff", "playoffs",
		"tournament", "basketball", "football", "hockey", "baseball", "soccer",
		"sea dogs", "mariners", "red claws", "celtics", "red sox", "patriots", "bruins",
		"black bears", "win", "wins", "score",
	)},
	{CategoryEnvironment, newKeywordSet(
		"climate", "environment", "environmental", "conservation", "wildlife", "moose",
		"lobster", "fishery", "fisheries", "fishing", "gulf of maine", "offshore wind",
		"solar", "pfas", "forest", "river", "coastal", "erosion", "dam", "habitat",
	)},
	{CategoryHealth, newKeywordSet(
		"health", "hospital", "medical", "covid", "flu", "vaccine", "cdc",
		"maine cdc", "mainehealth", "northern light", "patients", "doctor", "nurse",
		"mental health", "overdose", "disease", "outbreak", "measles", "ticks", "lyme",
	)},
	{CategoryCommunity, newKeywordSet(
		"community", "festival", "fair", "library", "volunteer", "volunteers",
		"fundraiser", "church", "parade", "celebration", "museum", "concert",
		"nonprofit", "food pantry", "residents", "neighbors", "anniversary",
	)},
}

var obituaryKeywords = newKeywordSet(
	"obituary", "obituaries", "obit", "passed away", "in memoriam",
	"celebration of life", "died peacefully",
)

var urgencyKeywords = newKeywordSet("breaking", "urgent", "alert", "emergency", "warning")
