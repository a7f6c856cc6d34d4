package chase

import "golang.org/x/exp/rand"

// AdversaryMode is the behaviour of the team that is not controlled by the policy
type AdversaryMode string

const (
	StaticMode AdversaryMode = "static"
	SimpleMode AdversaryMode = "simple"
	RandomMode AdversaryMode = "random"
)

func ParseAdversaryMode(s string) (AdversaryMode, error) {
	switch AdversaryMode(s) {
	case StaticMode, SimpleMode, RandomMode:
		return AdversaryMode(s), nil
	default:
		return "", configError("unsupported adversary mode %q", s)
	}
}

// AvailableMoves lists the neighbours reachable with the given speed in the
// fixed order (x, y-s), (x, y+s), (x-s, y), (x+s, y). A neighbour is kept only
// when the moved coordinate stays strictly inside (0, mapSize).
func AvailableMoves(p Position, speed, mapSize float64) []Position {
	moves := make([]Position, 0, 4)
	if p.Y-speed > 0 {
		moves = append(moves, Position{X: p.X, Y: p.Y - speed})
	}
	if p.Y+speed < mapSize {
		moves = append(moves, Position{X: p.X, Y: p.Y + speed})
	}
	if p.X-speed > 0 {
		moves = append(moves, Position{X: p.X - speed, Y: p.Y})
	}
	if p.X+speed < mapSize {
		moves = append(moves, Position{X: p.X + speed, Y: p.Y})
	}
	return moves
}

// PositionRating is the sum of Manhattan distances from p to every opposing position
func PositionRating(p Position, opposing []Position) float64 {
	sum := 0.0
	for _, o := range opposing {
		sum += Manhattan(p, o)
	}
	return sum
}

// Advance moves a single non-controlled entity. own is the mover's team and is
// not used by any of the modes. A thief flees (maximises the rating), police
// pursue (minimise it). Ties go to the first candidate.
func Advance(p Position, own, opposing []Position, speed, mapSize float64, mode AdversaryMode, role Team, rng *rand.Rand) Position {
	switch mode {
	case SimpleMode:
		moves := AvailableMoves(p, speed, mapSize)
		if len(moves) == 0 {
			return p
		}
		best := 0
		bestRating := PositionRating(moves[0], opposing)
		for i := 1; i < len(moves); i++ {
			r := PositionRating(moves[i], opposing)
			if (role == Thief && r > bestRating) || (role == Police && r < bestRating) {
				best, bestRating = i, r
			}
		}
		return moves[best]
	case RandomMode:
		moves := AvailableMoves(p, speed, mapSize)
		if len(moves) == 0 {
			return p
		}
		return moves[rng.Intn(len(moves))]
	default:
		return p
	}
}

// AdvanceAll moves every position of a team against the opposing positions
// and returns a new slice.
func AdvanceAll(positions, opposing []Position, speed, mapSize float64, mode AdversaryMode, role Team, rng *rand.Rand) []Position {
	out := make([]Position, len(positions))
	for i, p := range positions {
		out[i] = Advance(p, positions, opposing, speed, mapSize, mode, role, rng)
	}
	return out
}
