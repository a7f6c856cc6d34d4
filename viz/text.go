package viz

import (
	"fmt"
	"io"
	"strings"

	"github.com/zeu5/pursuit-rl/chase"
	"gonum.org/v1/gonum/floats"
)

// TextRenderer draws snapshots as a character grid, one cell per map unit.
// P marks police, T thieves and * a cell shared by both teams.
type TextRenderer struct {
	w io.Writer
}

var _ chase.Renderer = &TextRenderer{}

func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func cell(p chase.Position, size int) (int, int) {
	x, y := int(p.X), int(p.Y)
	if x >= size {
		x = size - 1
	}
	if y >= size {
		y = size - 1
	}
	return x, y
}

// Draw returns the text frame of a snapshot
func Draw(s chase.Snapshot) string {
	size := s.MapSize
	rows := make([][]byte, size)
	for y := range rows {
		rows[y] = []byte(strings.Repeat(".", size))
	}
	mark := func(ps []chase.Position, team chase.Team) {
		symbol := byte('P')
		if team == chase.Thief {
			symbol = 'T'
		}
		for _, p := range ps {
			x, y := cell(p, size)
			switch rows[y][x] {
			case '.', symbol:
				rows[y][x] = symbol
			default:
				rows[y][x] = '*'
			}
		}
	}
	mark(s.Adversaries, s.AgentTeam.Opponent())
	mark(s.Agents, s.AgentTeam)

	var b strings.Builder
	for _, row := range rows {
		b.Write(row)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "episode %d step %d %s: %d left, return %.0f", s.Episode, s.Steps, s.Phase, len(s.Adversaries), floats.Sum(s.RewardHistory))
	if s.Caught {
		b.WriteString(", caught")
	}
	b.WriteByte('\n')
	return b.String()
}

func (t *TextRenderer) Render(s chase.Snapshot) {
	fmt.Fprint(t.w, Draw(s))
}
