package news

import (
	"regexp"
	"sort"
)

const (
	RegionSouthern = "Southern"
	RegionCentral  = "Central"
	RegionMidcoast = "Midcoast"
	RegionDowneast = "Downeast"
	RegionNorthern = "Northern"
	RegionWestern  = "Western"
)

type region struct {
	name  string
	towns []string
}

// regionTable is ordered; a story gets the first region holding any of its
// locations. Towns whose names collide with foreign places or common words
// (Paris, Mexico, Lisbon, Norway, Hope, Union...) are left out on purpose.
var regionTable = []region{
	{RegionSouthern, []string{
		"Portland", "South Portland", "Westbrook", "Scarborough", "Cape Elizabeth",
		"Falmouth", "Cumberland", "Yarmouth", "Freeport", "Gorham", "Windham",
		"Standish", "Saco", "Biddeford", "Old Orchard Beach", "Kennebunk",
		"Kennebunkport", "Wells", "Ogunquit", "York", "Kittery",
		"Sanford", "Buxton",
	}},
	{RegionCentral, []string{
		"Augusta", "Hallowell", "Gardiner", "Waterville", "Winslow", "Oakland",
		"Fairfield", "Skowhegan", "Lewiston", "Auburn", "Winthrop", "Readfield",
		"Monmouth", "Vassalboro", "Pittsfield", "Newport", "Madison",
	}},
	{RegionMidcoast, []string{
		"Brunswick", "Topsham", "Bath", "Wiscasset", "Boothbay Harbor",
		"Damariscotta", "Waldoboro", "Thomaston", "Rockland", "Rockport",
		"Camden", "Belfast", "Searsport", "Warren", "Owls Head",
	}},
	{RegionDowneast, []string{
		"Ellsworth", "Bar Harbor", "Mount Desert", "Southwest Harbor", "Blue Hill",
		"Deer Isle", "Stonington", "Bucksport", "Machias", "Jonesport",
		"Milbridge", "Lubec", "Eastport", "Calais",
	}},
	{RegionNorthern, []string{
		"Bangor", "Brewer", "Hampden", "Hermon", "Orono", "Old Town",
		"Millinocket", "East Millinocket", "Dover-Foxcroft", "Greenville",
		"Houlton", "Presque Isle", "Caribou", "Fort Kent", "Madawaska",
		"Van Buren", "Fort Fairfield",
	}},
	{RegionWestern, []string{
		"Farmington", "Wilton", "Livermore Falls", "Rumford", "Dixfield",
		"Bethel", "Rangeley", "Kingfield", "Bridgton", "Fryeburg", "Oxford",
		"South Paris",
	}},
}

// shadowNames contain a gazetteer name without referring to that town.
// Their spans are claimed first so "New York" never yields York. Maine
// county names are not listed: "York County" counts as York.
var shadowNames = []string{
	"New York", "Portland, Ore", "Portland, Oregon", "Augusta, Ga", "Augusta, Georgia",
	"Augusta National", "Bath, England", "Newport, R.I", "Newport, Rhode Island",
	"Madison, Wis", "Madison Square Garden", "Auburn University",
	"Oxford University", "Camden, N.J", "Warren Buffett", "Elizabeth Warren", "Wells Fargo",
}

type place struct {
	name  string
	order int
	re    *regexp.Regexp
}

var (
	gazetteer   []place
	byLength    []place
	shadowRegex []*regexp.Regexp
)

func init() {
	for _, r := range regionTable {
		for _, town := range r.towns {
			gazetteer = append(gazetteer, place{
				name:  town,
				order: len(gazetteer),
				re:    regexp.MustCompile(`\b` + regexp.QuoteMeta(town) + `\b`),
			})
		}
	}

	byLength = append([]place(nil), gazetteer...)
	sort.SliceStable(byLength, func(i, j int) bool {
		return len(byLength[i].name) > len(byLength[j].name)
	})

	for _, s := range shadowNames {
		shadowRegex = append(shadowRegex, regexp.MustCompile(`\b`+regexp.QuoteMeta(s)))
	}
}

type span struct{ start, end int }

func overlaps(spans []span, s span) bool {
	for _, c := range spans {
		if s.start < c.end && c.start < s.end {
			return true
		}
	}
	return false
}

// DetectLocations returns the Maine towns named in text, case-sensitively,
// in gazetteer order. A name counts only where it is not part of a longer
// detected name ("South Portland" does not also yield Portland).
func DetectLocations(text string) []string {
	var claimed []span
	for _, re := range shadowRegex {
		for _, m := range re.FindAllStringIndex(text, -1) {
			claimed = append(claimed, span{m[0], m[1]})
		}
	}

	found := make([]bool, len(gazetteer))
	for _, p := range byLength {
		var own []span
		for _, m := range p.re.FindAllStringIndex(text, -1) {
			s := span{m[0], m[1]}
			if !overlaps(claimed, s) {
				own = append(own, s)
			}
		}
		if len(own) > 0 {
			found[p.order] = true
			claimed = append(claimed, own...)
		}
	}

	locations := []string{}
	for i, ok := range found {
		if ok {
			locations = append(locations, gazetteer[i].name)
		}
	}
	return locations
}

// RegionFor returns the first region of the table containing any of the
// locations, or "" when none does.
func RegionFor(locations []string) string {
	if len(locations) == 0 {
		return ""
	}
	set := make(map[string]bool, len(locations))
	for _, l := range locations {
		set[l] = true
	}
	for _, r := range regionTable {
		for _, town := range r.towns {
			if set[town] {
				return r.name
			}
		}
	}
	return ""
}
