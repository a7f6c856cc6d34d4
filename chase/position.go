package chase

import (
	"fmt"
	"math"
)

// Team identifies one side of the chase
type Team string

const (
	Police Team = "police"
	Thief  Team = "thief"
)

func ParseTeam(s string) (Team, error) {
	switch Team(s) {
	case Police, Thief:
		return Team(s), nil
	default:
		return "", configError("unsupported team %q", s)
	}
}

// Opponent returns the other team
func (t Team) Opponent() Team {
	if t == Police {
		return Thief
	}
	return Police
}

// Position on the map, both coordinates are kept within [0, map size]
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Manhattan distance between two positions
func Manhattan(a, b Position) float64 {
	return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y)
}

// clampToMap pins each coordinate to [0, mapSize]. The upper sentinel is the
// map size itself, not mapSize-1.
func clampToMap(p Position, mapSize float64) Position {
	return Position{X: clampCoord(p.X, mapSize), Y: clampCoord(p.Y, mapSize)}
}

func clampCoord(v, mapSize float64) float64 {
	if v > mapSize {
		return mapSize
	}
	if v < 0 {
		return 0
	}
	return v
}

func copyPositions(ps []Position) []Position {
	out := make([]Position, len(ps))
	copy(out, ps)
	return out
}

// Roster holds the positions of both teams. Agents are ordered, the index of
// an agent is the index of its action. Stages of a step never modify a roster
// in place, they return a new one.
type Roster struct {
	Agents      []Position `json:"agents"`
	Adversaries []Position `json:"adversaries"`
}

// Clone returns a deep copy of the roster
func (r Roster) Clone() Roster {
	return Roster{
		Agents:      copyPositions(r.Agents),
		Adversaries: copyPositions(r.Adversaries),
	}
}

// Entities is the combined number of agents and adversaries
func (r Roster) Entities() int {
	return len(r.Agents) + len(r.Adversaries)
}
