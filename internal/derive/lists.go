// Package derive computes the read-only views over a match list: the
// autocomplete lists, per-game history, matchup matrices and chart series.
// Nothing here mutates its input.
package derive

import (
	"strings"

	"github.com/cschnabel/scorekeeper/internal/model"
)

// DistinctGames returns every non-empty game name in first-seen order.
func DistinctGames(matches []model.Match) []string {
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Game == "" {
			continue
		}
		if _, ok := seen[m.Game]; ok {
			continue
		}
		seen[m.Game] = struct{}{}
		out = append(out, m.Game)
	}
	return out
}

// DistinctPlayers returns every name listed in any record's players, in
// first-seen order.
func DistinctPlayers(matches []model.Match) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, m := range matches {
		for _, p := range m.Players {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// EligibleWinners trims the entered names and drops blanks and repeats.
// Front ends apply it to the current form before offering a winner.
func EligibleWinners(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
