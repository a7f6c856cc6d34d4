package policies

import (
	"math"

	"github.com/zeu5/pursuit-rl/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// SoftMaxPolicy learns like QLearningPolicy and samples actions with
// probability proportional to exp(Q / temperature)
type SoftMaxPolicy struct {
	*QLearningPolicy
	temperature float64
	rand        rand.Source
}

var _ types.Policy = &SoftMaxPolicy{}

func NewSoftMaxPolicy(alpha, discount, temperature float64, seed uint64) *SoftMaxPolicy {
	return &SoftMaxPolicy{
		QLearningPolicy: NewQLearningPolicy(alpha, discount, 0, seed),
		temperature:     temperature,
		rand:            rand.NewSource(seed + 1),
	}
}

// Weights returns the sampling probability of every action
func (s *SoftMaxPolicy) Weights(state types.State, actions []types.Action) []float64 {
	stateHash := state.Hash()
	vals := make([]float64, len(actions))
	for i, action := range actions {
		vals[i] = s.qTable.Get(stateHash, action.Hash(), 0) / s.temperature
	}
	// shift by the max so exp never overflows
	m := floats.Max(vals)
	for i, val := range vals {
		vals[i] = math.Exp(val - m)
	}
	floats.Scale(1/floats.Sum(vals), vals)
	return vals
}

func (s *SoftMaxPolicy) NextAction(step int, state types.State, actions []types.Action) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	i, ok := sampleuv.NewWeighted(s.Weights(state, actions), s.rand).Take()
	if !ok {
		return nil, false
	}
	return actions[i], true
}
