package chase

import (
	"math"

	"github.com/pkg/errors"
)

// ActionEncoding selects how agent actions are interpreted
type ActionEncoding string

const (
	// Discrete actions index into the four unit directions up/down/left/right
	Discrete ActionEncoding = "discret"
	// ContinuousAngle actions are a heading in [0, 2π]
	ContinuousAngle ActionEncoding = "continous_angle"
	// ContinuousVector actions are a 2-vector, (0, 0) means stay
	ContinuousVector ActionEncoding = "continous_vector"
)

// ParseActionEncoding accepts the historical names as well as the correctly
// spelled ones.
func ParseActionEncoding(s string) (ActionEncoding, error) {
	switch s {
	case "discret", "discrete":
		return Discrete, nil
	case "continous_angle", "continuous_angle":
		return ContinuousAngle, nil
	case "continous_vector", "continuous_vector":
		return ContinuousVector, nil
	default:
		return "", configError("unsupported action encoding %q", s)
	}
}

// Width is the number of components of a single agent action
func (e ActionEncoding) Width() int {
	if e == ContinuousVector {
		return 2
	}
	return 1
}

// MoveDirections are the unit vectors for discrete actions: up, down, left, right
var MoveDirections = [4][2]float64{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}

// StayIndex is the first discrete index that does not move the agent
const StayIndex = len(MoveDirections)

// AgentAction is the action of a single agent, its width depends on the encoding
type AgentAction []float64

// JointAction holds one AgentAction per agent, in roster order
type JointAction []AgentAction

// Clone returns a deep copy, nil stays nil
func (j JointAction) Clone() JointAction {
	if j == nil {
		return nil
	}
	out := make(JointAction, len(j))
	for i, a := range j {
		out[i] = append(AgentAction(nil), a...)
	}
	return out
}

// DiscreteAction builds a joint action from direction indices
func DiscreteAction(indices ...int) JointAction {
	out := make(JointAction, len(indices))
	for i, idx := range indices {
		out[i] = AgentAction{float64(idx)}
	}
	return out
}

// AngleAction builds a joint action from headings
func AngleAction(angles ...float64) JointAction {
	out := make(JointAction, len(angles))
	for i, a := range angles {
		out[i] = AgentAction{a}
	}
	return out
}

// VectorAction builds a joint action from (x, y) pairs
func VectorAction(vectors ...[2]float64) JointAction {
	out := make(JointAction, len(vectors))
	for i, v := range vectors {
		out[i] = AgentAction{v[0], v[1]}
	}
	return out
}

// Move applies one action per position and returns the new positions. The
// input slice is not modified. Results are clamped to [0, mapSize].
func Move(positions []Position, actions JointAction, speed, mapSize float64, enc ActionEncoding) ([]Position, error) {
	if len(actions) != len(positions) {
		return nil, errors.Wrapf(ErrInvalidAction, "got %d actions for %d agents", len(actions), len(positions))
	}
	out := copyPositions(positions)
	for i, a := range actions {
		if len(a) != enc.Width() {
			return nil, errors.Wrapf(ErrInvalidAction, "agent %d: %s action needs %d components, got %d", i, enc, enc.Width(), len(a))
		}
		if enc != Discrete {
			for _, v := range a {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, errors.Wrapf(ErrInvalidAction, "agent %d: non-finite %s component %g", i, enc, v)
				}
			}
		}
		var dx, dy float64
		switch enc {
		case Discrete:
			dx, dy = discreteDelta(a[0], speed)
		case ContinuousAngle:
			dx, dy = angleDelta(a[0], speed)
		case ContinuousVector:
			dx, dy = vectorDelta(a[0], a[1], speed)
		default:
			return nil, configError("unsupported action encoding %q", enc)
		}
		if dx == 0 && dy == 0 {
			continue
		}
		out[i] = clampToMap(Position{X: out[i].X + dx, Y: out[i].Y + dy}, mapSize)
	}
	return out, nil
}

// out of range or fractional indices keep the agent in place
func discreteDelta(a, speed float64) (float64, float64) {
	if !(a >= 0 && a < float64(len(MoveDirections))) || a != math.Trunc(a) {
		return 0, 0
	}
	dir := MoveDirections[int(a)]
	return dir[0] * speed, dir[1] * speed
}

func angleDelta(theta, speed float64) (float64, float64) {
	theta = math.Max(0, math.Min(2*math.Pi, theta))
	return math.Cos(theta) * speed, math.Sin(theta) * speed
}

func vectorDelta(x, y, speed float64) (float64, float64) {
	if x == 0 && y == 0 {
		return 0, 0
	}
	norm := math.Hypot(x, y)
	return x / norm * speed, y / norm * speed
}
