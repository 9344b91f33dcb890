package derive

import "github.com/cschnabel/scorekeeper/internal/model"

// Matchup is the head-to-head table for one game.
type Matchup struct {
	Players []string                  `json:"players"`
	Wins    map[string]map[string]int `json:"wins"`
	Totals  map[string]int            `json:"totals"`
}

// Cell returns how often winner beat loser. The diagonal has no value and
// reports ok == false.
func (m Matchup) Cell(winner, loser string) (int, bool) {
	if winner == loser {
		return 0, false
	}
	return m.Wins[winner][loser], true
}

// ComputeMatchup builds the win matrix for one game's matches. A match adds
// one to winner→loser for each of its losers; losers are not ranked against
// each other.
func ComputeMatchup(matches []model.Match) Matchup {
	players := make([]string, 0)
	seen := make(map[string]struct{})
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		players = append(players, name)
	}
	for _, m := range matches {
		for _, p := range m.Players {
			add(p)
		}
	}
	// imported records are not validated, so make sure every winner and
	// loser has a row
	for _, m := range matches {
		add(m.Winner)
		for _, l := range m.Losers {
			add(l)
		}
	}

	wins := make(map[string]map[string]int, len(players))
	for _, p1 := range players {
		row := make(map[string]int, len(players))
		for _, p2 := range players {
			row[p2] = 0
		}
		wins[p1] = row
	}

	for _, m := range matches {
		for _, loser := range m.Losers {
			if loser == m.Winner {
				continue
			}
			wins[m.Winner][loser]++
		}
	}

	totals := make(map[string]int, len(players))
	for _, p := range players {
		totals[p] = 0
	}
	for _, wc := range winCounts(matches) {
		totals[wc.Player] = wc.Wins
	}

	return Matchup{Players: players, Wins: wins, Totals: totals}
}

// PlayerWins is one bar of the chart.
type PlayerWins struct {
	Player string `json:"player"`
	Wins   int    `json:"wins"`
}

// Series is the win counts of one game.
type Series struct {
	Game string       `json:"game"`
	Bars []PlayerWins `json:"bars"`
}

// ChartSeries counts wins per game and winner across the whole list. Games
// and winners keep first-seen order; players without a win are absent.
func ChartSeries(matches []model.Match) []Series {
	byGame := make([][]model.Match, 0)
	games := make([]string, 0)
	pos := make(map[string]int)
	for _, m := range matches {
		i, ok := pos[m.Game]
		if !ok {
			i = len(games)
			pos[m.Game] = i
			games = append(games, m.Game)
			byGame = append(byGame, nil)
		}
		byGame[i] = append(byGame[i], m)
	}

	out := make([]Series, 0, len(games))
	for i, game := range games {
		out = append(out, Series{Game: game, Bars: winCounts(byGame[i])})
	}
	return out
}

func winCounts(matches []model.Match) []PlayerWins {
	out := make([]PlayerWins, 0)
	pos := make(map[string]int)
	for _, m := range matches {
		i, ok := pos[m.Winner]
		if !ok {
			i = len(out)
			pos[m.Winner] = i
			out = append(out, PlayerWins{Player: m.Winner})
		}
		out[i].Wins++
	}
	return out
}
