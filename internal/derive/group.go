package derive

import (
	"slices"
	"strings"
	"time"

	"github.com/cschnabel/scorekeeper/internal/model"
)

// Entry is a match together with its position in the full list. Index is
// only valid against the snapshot the entry was derived from.
type Entry struct {
	Index int         `json:"index"`
	Match model.Match `json:"match"`
}

// Group is the history of one game, newest first.
type Group struct {
	Game    string  `json:"game"`
	Entries []Entry `json:"entries"`
}

// Matches returns the group's records without their indexes.
func (g Group) Matches() []model.Match {
	out := make([]model.Match, 0, len(g.Entries))
	for _, e := range g.Entries {
		out = append(out, e.Match)
	}
	return out
}

// GroupByGame buckets matches by exact game name. Groups keep first-seen
// order; entries inside a group are sorted by date descending and keep
// insertion order on ties.
func GroupByGame(matches []model.Match) []Group {
	groups := make([]Group, 0)
	pos := make(map[string]int)
	for i, m := range matches {
		gi, ok := pos[m.Game]
		if !ok {
			gi = len(groups)
			pos[m.Game] = gi
			groups = append(groups, Group{Game: m.Game})
		}
		groups[gi].Entries = append(groups[gi].Entries, Entry{Index: i, Match: m})
	}

	for i := range groups {
		slices.SortStableFunc(groups[i].Entries, func(a, b Entry) int {
			return CompareDates(b.Match.Date, a.Match.Date)
		})
	}
	return groups
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
}

// ParseDate parses a match date. Unparsable input reports ok == false.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// CompareDates orders two date strings chronologically. Unparsable dates
// are the earliest possible value and compare equal to each other.
func CompareDates(a, b string) int {
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	return ta.Compare(tb)
}
