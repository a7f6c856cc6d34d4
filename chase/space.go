package chase

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/mat"
)

type SpaceKind string

const (
	DiscreteSpace SpaceKind = "discrete"
	BoxSpace      SpaceKind = "box"
)

// Space describes the shape and bounds of observations or actions. Discrete
// spaces hold N choices, box spaces hold element-wise bounds.
type Space struct {
	Kind  SpaceKind
	N     int
	Shape []int
	Low   *mat.VecDense
	High  *mat.VecDense
}

func NewDiscreteSpace(n int) Space {
	return Space{Kind: DiscreteSpace, N: n, Shape: []int{1}}
}

// NewBoxSpace builds a box with the same bounds for every element
func NewBoxSpace(low, high float64, shape ...int) Space {
	n := shapeSize(shape)
	lo := mat.NewVecDense(n, nil)
	hi := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		lo.SetVec(i, low)
		hi.SetVec(i, high)
	}
	return Space{Kind: BoxSpace, Shape: shape, Low: lo, High: hi}
}

// Size is the number of scalar components of a value in the space
func (s Space) Size() int {
	return shapeSize(s.Shape)
}

// Contains reports whether v lies inside the space
func (s Space) Contains(v []float64) bool {
	if s.Kind == DiscreteSpace {
		return len(v) == 1 && v[0] >= 0 && v[0] < float64(s.N) && v[0] == math.Trunc(v[0])
	}
	if len(v) != s.Size() {
		return false
	}
	for i, x := range v {
		if x < s.Low.AtVec(i) || x > s.High.AtVec(i) {
			return false
		}
	}
	return true
}

type spaceJSON struct {
	Kind  SpaceKind `json:"kind"`
	N     int       `json:"n,omitempty"`
	Shape []int     `json:"shape"`
	Low   []float64 `json:"low,omitempty"`
	High  []float64 `json:"high,omitempty"`
}

func (s Space) MarshalJSON() ([]byte, error) {
	out := spaceJSON{Kind: s.Kind, N: s.N, Shape: s.Shape}
	if s.Low != nil {
		out.Low = mat.Col(nil, 0, s.Low)
		out.High = mat.Col(nil, 0, s.High)
	}
	return json.Marshal(out)
}

func actionSpace(enc ActionEncoding) Space {
	switch enc {
	case ContinuousAngle:
		return NewBoxSpace(0, 2*math.Pi, 1)
	case ContinuousVector:
		return NewBoxSpace(-1, 1, 2)
	default:
		return NewDiscreteSpace(len(MoveDirections))
	}
}
