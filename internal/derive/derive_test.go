package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cschnabel/scorekeeper/internal/model"
)

func match(game, date, winner string, players ...string) model.Match {
	losers := make([]string, 0, len(players))
	for _, p := range players {
		if p != winner {
			losers = append(losers, p)
		}
	}
	return model.Match{Game: game, Date: date, Winner: winner, Players: players, Losers: losers}
}

func TestComputePointsWon(t *testing.T) {
	ab := []string{"A", "B"}
	assert.Equal(t, 3.0, ComputePointsWon(ab, "A", []string{"10", "7"}))
	assert.Equal(t, -3.0, ComputePointsWon(ab, "B", []string{"10", "7"}))
	assert.Equal(t, 0.0, ComputePointsWon(ab, "A", []string{"", ""}))
	assert.Equal(t, 0.0, ComputePointsWon(ab, "A", nil))
	assert.Equal(t, 0.0, ComputePointsWon(ab, "A", []string{"x", "y"}))
}

func TestComputePointsWonUsesBestOther(t *testing.T) {
	players := []string{"A", "B", "C"}
	assert.Equal(t, 2.0, ComputePointsWon(players, "A", []string{"12", "10", "4"}))
	assert.Equal(t, 6.0, ComputePointsWon(players, "C", []string{"", "bad", "6"}))
	// winner cell missing counts as zero
	assert.Equal(t, -10.0, ComputePointsWon(players, "C", []string{"3", "10"}))
	assert.Equal(t, 1.5, ComputePointsWon(players, "B", []string{"1", "2.5", ""}))
}

func TestComputeMatchupMultiLoser(t *testing.T) {
	m := ComputeMatchup([]model.Match{match("chess", "", "A", "A", "B", "C")})

	require.Equal(t, []string{"A", "B", "C"}, m.Players)
	v, ok := m.Cell("A", "B")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	v, _ = m.Cell("A", "C")
	assert.Equal(t, 1, v)
	v, _ = m.Cell("B", "A")
	assert.Equal(t, 0, v)
	_, ok = m.Cell("A", "A")
	assert.False(t, ok)

	assert.Equal(t, map[string]int{"A": 1, "B": 0, "C": 0}, m.Totals)
}

func TestTotalsSumToGroupSize(t *testing.T) {
	matches := []model.Match{
		match("chess", "2024-01-01", "A", "A", "B"),
		match("chess", "2024-01-02", "B", "A", "B"),
		match("go", "2024-01-02", "C", "A", "C"),
		match("chess", "2024-01-03", "B", "A", "B", "D"),
		match("", "2024-01-03", "D", "D", "E"),
		{Game: "go", Winner: "Z", Players: []string{"A"}, Losers: []string{"A"}},
	}

	for _, g := range GroupByGame(matches) {
		m := ComputeMatchup(g.Matches())
		sum := 0
		for _, n := range m.Totals {
			sum += n
		}
		assert.Equal(t, len(g.Entries), sum, "game %q", g.Game)
	}
}

func TestGroupByGameSortsNewestFirstAndKeepsTies(t *testing.T) {
	matches := []model.Match{
		match("chess", "2024-01-01", "A", "A", "B"),
		match("go", "2024-02-01", "A", "A", "B"),
		match("chess", "2024-03-01", "B", "A", "B"),
		match("chess", "not a date", "A", "A", "B"),
		match("chess", "2024-03-01", "A", "A", "C"),
		match("Chess", "2024-05-01", "A", "A", "C"),
		match("chess", "", "C", "A", "C"),
	}

	groups := GroupByGame(matches)
	require.Len(t, groups, 3)
	assert.Equal(t, "chess", groups[0].Game)
	assert.Equal(t, "go", groups[1].Game)
	assert.Equal(t, "Chess", groups[2].Game)

	var order []int
	for _, e := range groups[0].Entries {
		order = append(order, e.Index)
	}
	assert.Equal(t, []int{2, 4, 0, 3, 6}, order)
}

func TestGroupByGameKeepsMembership(t *testing.T) {
	matches := []model.Match{
		match("a", "2024-01-02", "A", "A", "B"),
		match("b", "2024-01-01", "A", "A", "B"),
		match("a", "2024-01-03", "A", "A", "B"),
		match("", "2024-01-03", "A", "A", "B"),
	}

	seen := make(map[int]string)
	for _, g := range GroupByGame(matches) {
		for _, e := range g.Entries {
			_, dup := seen[e.Index]
			require.False(t, dup)
			seen[e.Index] = g.Game
			assert.Equal(t, matches[e.Index], e.Match)
		}
	}
	require.Len(t, seen, len(matches))
	for i, m := range matches {
		assert.Equal(t, m.Game, seen[i])
	}
}

func TestCompareDates(t *testing.T) {
	assert.Equal(t, 1, CompareDates("2024-01-02", "2024-01-01"))
	assert.Equal(t, -1, CompareDates("bogus", "2024-01-01"))
	assert.Equal(t, 1, CompareDates("1900-01-01", ""))
	assert.Equal(t, 0, CompareDates("bogus", ""))
	assert.Equal(t, 0, CompareDates("2024-01-01", "2024-01-01"))
}

func TestDistinctGamesSkipsEmpty(t *testing.T) {
	matches := []model.Match{
		match("", "", "A", "A", "B"),
		match("go", "", "C", "C", "D"),
		match("chess", "", "A", "A", "B"),
		match("go", "", "A", "A", "B"),
	}
	assert.Equal(t, []string{"go", "chess"}, DistinctGames(matches))
	assert.Equal(t, []string{"A", "B", "C", "D"}, DistinctPlayers(matches))
}

func TestEligibleWinners(t *testing.T) {
	got := EligibleWinners([]string{" Ann ", "", "Bob", "  ", "Ann"})
	assert.Equal(t, []string{"Ann", "Bob"}, got)
}

func TestChartSeries(t *testing.T) {
	matches := []model.Match{
		match("chess", "", "A", "A", "B"),
		match("go", "", "B", "A", "B"),
		match("chess", "", "B", "A", "B"),
		match("chess", "", "A", "A", "B"),
	}
	got := ChartSeries(matches)
	assert.Equal(t, []Series{
		{Game: "chess", Bars: []PlayerWins{{Player: "A", Wins: 2}, {Player: "B", Wins: 1}}},
		{Game: "go", Bars: []PlayerWins{{Player: "B", Wins: 1}}},
	}, got)
}

func TestComputeViews(t *testing.T) {
	matches := []model.Match{
		match("chess", "2024-01-01", "A", "A", "B"),
		match("", "2024-01-02", "C", "A", "C"),
		match("chess", "2024-01-03", "B", "A", "B"),
	}
	v := ComputeViews(matches)

	assert.Equal(t, []string{"chess"}, v.Games)
	assert.Equal(t, []string{"A", "B", "C"}, v.Players)
	require.Len(t, v.History, 2)
	require.Len(t, v.Matchups, 2)
	assert.Equal(t, "", v.Matchups[1].Game)
	assert.Equal(t, 1, v.Matchups[1].Matchup.Totals["C"])
	assert.Equal(t, 2, v.History[0].Entries[0].Index)
	require.Len(t, v.Chart, 2)
}
