package derive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cschnabel/scorekeeper/internal/model"
)

var (
	ErrTooFewPlayers   = errors.New("at least two players required")
	ErrDuplicatePlayer = errors.New("player names must be distinct")
	ErrUnknownWinner   = errors.New("winner is not one of the players")
)

// BuildMatch validates a draft and fills in the derived fields. Rows with a
// blank name are dropped along with their points so points stay aligned
// with players. An empty winner defaults to the first player.
func BuildMatch(d model.Draft) (model.Match, error) {
	players := make([]string, 0, len(d.Players))
	points := make([]string, 0, len(d.Players))
	seen := make(map[string]struct{}, len(d.Players))
	anyPoints := false
	for _, row := range d.Players {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			return model.Match{}, fmt.Errorf("%w: %q", ErrDuplicatePlayer, name)
		}
		seen[name] = struct{}{}
		players = append(players, name)

		pts := strings.TrimSpace(row.Points)
		if pts != "" {
			anyPoints = true
		}
		points = append(points, pts)
	}

	if len(players) < 2 {
		return model.Match{}, ErrTooFewPlayers
	}
	if !anyPoints {
		points = []string{}
	}

	winner := strings.TrimSpace(d.Winner)
	if winner == "" {
		winner = players[0]
	}
	if _, ok := seen[winner]; !ok {
		return model.Match{}, fmt.Errorf("%w: %q", ErrUnknownWinner, winner)
	}

	losers := make([]string, 0, len(players)-1)
	for _, p := range players {
		if p != winner {
			losers = append(losers, p)
		}
	}

	return model.Match{
		Game:      d.Game,
		Players:   players,
		Winner:    winner,
		Losers:    losers,
		Points:    points,
		PointsWon: ComputePointsWon(players, winner, points),
		Date:      strings.TrimSpace(d.Date),
		Notes:     d.Notes,
	}, nil
}
