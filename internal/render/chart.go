package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/cschnabel/scorekeeper/internal/derive"
)

// Fixed canvas geometry of the win chart, in pixels.
const (
	ChartWidth  = 600
	ChartHeight = 300
	chartStartX = 50
	barWidth    = 30
	barGap      = 10
	gameGap     = 40
	unitHeight  = 20
	baselineY   = 280
	titleY      = 20
	labelY      = 295
)

var palette = []string{"#ff6384", "#36a2eb", "#ffce56", "#4bc0c0", "#9966ff", "#ff9f40"}

type Bar struct {
	Player string `json:"player"`
	Wins   int    `json:"wins"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Color  string `json:"color"`
}

type GameLabel struct {
	Game string `json:"game"`
	X    int    `json:"x"`
}

// Chart is the laid-out bar chart. Bars past ChartWidth are kept; the canvas
// does not scale.
type Chart struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Titles []GameLabel `json:"titles"`
	Bars   []Bar       `json:"bars"`
}

// Layout places one bar per winner, games left to right.
func Layout(series []derive.Series) Chart {
	c := Chart{Width: ChartWidth, Height: ChartHeight}
	x := chartStartX
	for gi, s := range series {
		c.Titles = append(c.Titles, GameLabel{Game: s.Game, X: x})
		for pi, b := range s.Bars {
			h := b.Wins * unitHeight
			c.Bars = append(c.Bars, Bar{
				Player: b.Player,
				Wins:   b.Wins,
				X:      x,
				Y:      baselineY - h,
				Width:  barWidth,
				Height: h,
				Color:  palette[(pi+gi)%len(palette)],
			})
			x += barWidth + barGap
		}
		x += gameGap
	}
	return c
}

// SVG draws the chart.
func SVG(w io.Writer, c Chart) error {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="10">`+"\n",
		c.Width, c.Height, c.Width, c.Height)
	for _, t := range c.Titles {
		fmt.Fprintf(&b, `<text x="%d" y="%d" fill="#000">%s</text>`+"\n", t.X, titleY, html.EscapeString(t.Game))
	}
	for _, bar := range c.Bars {
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`+"\n",
			bar.X, bar.Y, bar.Width, bar.Height, bar.Color)
		fmt.Fprintf(&b, `<text x="%d" y="%d" fill="#000">%s (%d)</text>`+"\n",
			bar.X, labelY, html.EscapeString(bar.Player), bar.Wins)
	}
	b.WriteString("</svg>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// Bars writes the chart as horizontal text bars.
func Bars(w io.Writer, series []derive.Series) error {
	for _, s := range series {
		if _, err := fmt.Fprintf(w, "%s\n", gameTitle(s.Game)); err != nil {
			return err
		}
		for _, b := range s.Bars {
			if _, err := fmt.Fprintf(w, "  %-16s %s %d\n", b.Player, strings.Repeat("#", b.Wins), b.Wins); err != nil {
				return err
			}
		}
	}
	return nil
}
