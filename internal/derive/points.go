package derive

import "github.com/cschnabel/scorekeeper/internal/model"

// ComputePointsWon is the winner's margin over the best other score.
//
// It is 0 when no point parses. A missing or unparsable winner score counts
// as 0, and so does the best other score when no other cell parses.
func ComputePointsWon(players []string, winner string, points []string) float64 {
	anyNumeric := false
	for _, p := range points {
		if _, ok := model.ParsePoint(p); ok {
			anyNumeric = true
			break
		}
	}
	if !anyNumeric {
		return 0
	}

	winnerIdx := -1
	for i, p := range players {
		if p == winner {
			winnerIdx = i
			break
		}
	}

	var winnerPoints float64
	if winnerIdx >= 0 && winnerIdx < len(points) {
		winnerPoints, _ = model.ParsePoint(points[winnerIdx])
	}

	var bestOther float64
	found := false
	for i, raw := range points {
		if i == winnerIdx {
			continue
		}
		v, ok := model.ParsePoint(raw)
		if !ok {
			continue
		}
		if !found || v > bestOther {
			bestOther = v
			found = true
		}
	}

	return winnerPoints - bestOther
}
