package derive

import "github.com/cschnabel/scorekeeper/internal/model"

// GameMatchup pairs a game with its matchup table.
type GameMatchup struct {
	Game    string  `json:"game"`
	Matchup Matchup `json:"matchup"`
}

// Views is everything a front end redraws after a change.
type Views struct {
	Games    []string      `json:"games"`
	Players  []string      `json:"players"`
	History  []Group       `json:"history"`
	Matchups []GameMatchup `json:"matchups"`
	Chart    []Series      `json:"chart"`
}

// ComputeViews derives all views from one snapshot.
func ComputeViews(matches []model.Match) Views {
	history := GroupByGame(matches)
	matchups := make([]GameMatchup, 0, len(history))
	for _, g := range history {
		matchups = append(matchups, GameMatchup{Game: g.Game, Matchup: ComputeMatchup(g.Matches())})
	}
	return Views{
		Games:    DistinctGames(matches),
		Players:  DistinctPlayers(matches),
		History:  history,
		Matchups: matchups,
		Chart:    ChartSeries(matches),
	}
}
