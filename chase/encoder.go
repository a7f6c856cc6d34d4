package chase

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ObservationFormat selects the observation encoding
type ObservationFormat string

const (
	Grid3D           ObservationFormat = "grid3d"
	Grid3DRavel      ObservationFormat = "grid3d_ravel"
	CoordListUnfixed ObservationFormat = "cord_list_unfixed"
	CoordListFixed   ObservationFormat = "cord_list_fixed_500"
)

const (
	// FixedCapacity is the number of entities held by CoordListFixed
	FixedCapacity = 500
	// GridChannels is the depth of a grid observation: agents then adversaries
	GridChannels = 2

	AgentChannel     = 0
	AdversaryChannel = 1
)

func ParseObservationFormat(s string) (ObservationFormat, error) {
	switch ObservationFormat(s) {
	case Grid3D, Grid3DRavel, CoordListUnfixed, CoordListFixed:
		return ObservationFormat(s), nil
	default:
		return "", configError("unsupported observation format %q", s)
	}
}

func (f ObservationFormat) IsGrid() bool {
	return f == Grid3D || f == Grid3DRavel
}

// Observation is a dense array in row-major order with its shape
type Observation struct {
	Data  []float64 `json:"data"`
	Shape []int     `json:"shape"`
}

func shapeSize(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Reshape returns a copy of the observation with a new shape of the same size
func (o Observation) Reshape(shape ...int) (Observation, error) {
	if shapeSize(shape) != len(o.Data) {
		return Observation{}, errors.Errorf("cannot reshape %d values into %v", len(o.Data), shape)
	}
	data := make([]float64, len(o.Data))
	copy(data, o.Data)
	s := make([]int, len(shape))
	copy(s, shape)
	return Observation{Data: data, Shape: s}, nil
}

// Ravel returns the observation flattened to one dimension
func (o Observation) Ravel() Observation {
	flat, _ := o.Reshape(len(o.Data))
	return flat
}

// At indexes a grid observation by (x, y, channel)
func (o Observation) At(x, y, c int) float64 {
	size, depth := o.Shape[1], o.Shape[2]
	return o.Data[(x*size+y)*depth+c]
}

// Channel returns one channel of a 3-D grid observation as a matrix indexed
// by (x, y). It returns nil for observations that are not 3-D.
func (o Observation) Channel(c int) *mat.Dense {
	if len(o.Shape) != 3 || c < 0 || c >= o.Shape[2] {
		return nil
	}
	rows, cols := o.Shape[0], o.Shape[1]
	m := mat.NewDense(rows, cols, nil)
	for x := 0; x < rows; x++ {
		for y := 0; y < cols; y++ {
			m.Set(x, y, o.At(x, y, c))
		}
	}
	return m
}

// Encoder turns a roster into an observation of a fixed format
type Encoder struct {
	format       ObservationFormat
	mapSize      int
	gridScale    int
	adversaryNum int
}

// NewEncoder validates the format and scale. adversaryNum is the configured
// total of adversaries, used to normalise the adversary grid channel.
func NewEncoder(format ObservationFormat, mapSize, gridScale, adversaryNum int) (*Encoder, error) {
	if _, err := ParseObservationFormat(string(format)); err != nil {
		return nil, err
	}
	if mapSize <= 0 {
		return nil, configError("map size must be positive, got %d", mapSize)
	}
	if format.IsGrid() && gridScale <= 0 {
		return nil, configError("grid scale must be positive, got %d", gridScale)
	}
	if format.IsGrid() && adversaryNum <= 0 {
		return nil, configError("grid formats need a positive adversary count, got %d", adversaryNum)
	}
	return &Encoder{
		format:       format,
		mapSize:      mapSize,
		gridScale:    gridScale,
		adversaryNum: adversaryNum,
	}, nil
}

func (e *Encoder) Format() ObservationFormat {
	return e.format
}

// GridSize is the number of cells along each spatial axis
func (e *Encoder) GridSize() int {
	return e.mapSize * e.gridScale
}

// Shape of the observations produced for the given entity counts. For
// cord_list_unfixed the length follows the live roster, so the counts passed
// here are the ones at reset.
func (e *Encoder) Shape(agents, adversaries int) []int {
	switch e.format {
	case Grid3D:
		return []int{e.GridSize(), e.GridSize(), GridChannels}
	case Grid3DRavel:
		return []int{e.GridSize() * e.GridSize() * GridChannels}
	case CoordListFixed:
		return []int{FixedCapacity * 2}
	default:
		return []int{(agents + adversaries) * 2}
	}
}

// Encode builds the observation of the roster
func (e *Encoder) Encode(r Roster) (Observation, error) {
	switch e.format {
	case Grid3D:
		return e.grid(r), nil
	case Grid3DRavel:
		return e.grid(r).Ravel(), nil
	case CoordListFixed:
		if r.Entities() > FixedCapacity {
			return Observation{}, errors.Wrapf(ErrCapacityExceeded, "%d entities, capacity %d", r.Entities(), FixedCapacity)
		}
		return e.coordList(r, FixedCapacity), nil
	default:
		return e.coordList(r, r.Entities()), nil
	}
}

func (e *Encoder) coordList(r Roster, capacity int) Observation {
	data := make([]float64, capacity*2)
	scale := float64(e.mapSize)
	i := 0
	for _, ps := range [][]Position{r.Agents, r.Adversaries} {
		for _, p := range ps {
			data[i] = p.X / scale
			data[i+1] = p.Y / scale
			i += 2
		}
	}
	return Observation{Data: data, Shape: []int{capacity * 2}}
}

func (e *Encoder) grid(r Roster) Observation {
	size := e.GridSize()
	data := make([]float64, size*size*GridChannels)
	for c, ps := range [][]Position{AgentChannel: r.Agents, AdversaryChannel: r.Adversaries} {
		for _, p := range ps {
			x, y := e.Cell(p)
			data[(x*size+y)*GridChannels+c] += 1
		}
	}
	norm := float64(e.adversaryNum)
	for i := AdversaryChannel; i < len(data); i += GridChannels {
		data[i] /= norm
	}
	return Observation{Data: data, Shape: []int{size, size, GridChannels}}
}

// Cell projects a position to grid indices. A position exactly on the upper
// map edge lands on the last cell.
func (e *Encoder) Cell(p Position) (int, int) {
	size := e.GridSize()
	x := int(p.X * float64(e.gridScale))
	y := int(p.Y * float64(e.gridScale))
	if x == size {
		x--
	}
	if y == size {
		y--
	}
	return x, y
}
