package model

import (
	"math"
	"strconv"
	"strings"
)

// Match is one completed game with its participants and outcome. The JSON
// field names are the persisted and exported shape.
type Match struct {
	Game      string   `json:"game"`
	Players   []string `json:"players"`
	Winner    string   `json:"winner"`
	Losers    []string `json:"losers"`
	Points    []string `json:"points"`
	PointsWon float64  `json:"pointsWon"`
	Date      string   `json:"date"`
	Notes     string   `json:"notes"`
}

// Clone returns a copy that shares no slices with m.
func (m Match) Clone() Match {
	out := m
	out.Players = cloneStrings(m.Players)
	out.Losers = cloneStrings(m.Losers)
	out.Points = cloneStrings(m.Points)
	return out
}

// PlayerRow is one player line of the match form.
type PlayerRow struct {
	Name   string `json:"name"`
	Points string `json:"points"`
}

// Draft is unvalidated form input for a match.
type Draft struct {
	Game    string      `json:"game"`
	Players []PlayerRow `json:"players"`
	Winner  string      `json:"winner"`
	Date    string      `json:"date"`
	Notes   string      `json:"notes"`
}

// DraftFromMatch refills a form from a stored record.
func DraftFromMatch(m Match) Draft {
	rows := make([]PlayerRow, 0, len(m.Players))
	for i, name := range m.Players {
		row := PlayerRow{Name: name}
		if i < len(m.Points) {
			row.Points = m.Points[i]
		}
		rows = append(rows, row)
	}
	return Draft{
		Game:    m.Game,
		Players: rows,
		Winner:  m.Winner,
		Date:    m.Date,
		Notes:   m.Notes,
	}
}

// ParsePoint parses a points cell. Blank and non-numeric cells report
// ok == false.
func ParsePoint(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
