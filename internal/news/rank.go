package news

import "sort"

// SortByUrgency orders stories by urgency, highest first, keeping feed
// order among equals.
func SortByUrgency(stories []Story) {
	sort.SliceStable(stories, func(i, j int) bool {
		return stories[i].Urgency > stories[j].Urgency
	})
}

// TopByUrgency returns at most n stories, the most urgent first.
func TopByUrgency(stories []Story, n int) []Story {
	out := append([]Story(nil), stories...)
	SortByUrgency(out)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
