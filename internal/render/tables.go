// Package render turns derived views into text for the terminal and SVG for
// the chart.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cschnabel/scorekeeper/internal/derive"
)

// NoData marks a matchup cell without a value.
const NoData = "-"

func gameTitle(game string) string {
	if game == "" {
		return "(no game)"
	}
	return game
}

// History writes one table per game, newest match first.
func History(w io.Writer, groups []derive.Group) error {
	for gi, g := range groups {
		if gi > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s ==\n", gameTitle(g.Game))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tDate\tPlayers\tWinner\tMargin\tNotes")
		for _, e := range g.Entries {
			m := e.Match
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%g\t%s\n",
				e.Index, m.Date, strings.Join(m.Players, ", "), m.Winner, m.PointsWon, oneLine(m.Notes))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Matchups writes the head-to-head table of one game. Rows are winners,
// columns losers.
func Matchups(w io.Writer, game string, m derive.Matchup) error {
	fmt.Fprintf(w, "== %s ==\n", gameTitle(game))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "Player\t")
	for _, p := range m.Players {
		fmt.Fprintf(tw, "%s\t", p)
	}
	fmt.Fprintln(tw, "Total Wins\t")

	for _, p1 := range m.Players {
		fmt.Fprintf(tw, "%s\t", p1)
		for _, p2 := range m.Players {
			if v, ok := m.Cell(p1, p2); ok {
				fmt.Fprintf(tw, "%d\t", v)
			} else {
				fmt.Fprintf(tw, "%s\t", NoData)
			}
		}
		fmt.Fprintf(tw, "%d\t\n", m.Totals[p1])
	}
	return tw.Flush()
}

// Lists writes the autocomplete suggestions.
func Lists(w io.Writer, games, players []string) error {
	_, err := fmt.Fprintf(w, "games:   %s\nplayers: %s\n", strings.Join(games, ", "), strings.Join(players, ", "))
	return err
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
