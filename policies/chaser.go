package policies

import (
	"github.com/zeu5/pursuit-rl/chase"
	"github.com/zeu5/pursuit-rl/pursuit"
	"github.com/zeu5/pursuit-rl/types"
)

// ChaserPolicy is a fixed baseline. Police pick the joint move that brings
// the agents closest to the adversaries, thieves the one that takes them
// furthest away, measured as the summed Manhattan distance.
type ChaserPolicy struct{}

var _ types.Policy = &ChaserPolicy{}

func NewChaserPolicy() *ChaserPolicy {
	return &ChaserPolicy{}
}

func (c *ChaserPolicy) NextAction(_ int, state types.State, actions []types.Action) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	s, ok := state.(*pursuit.State)
	if !ok {
		return actions[0], true
	}
	pursue := s.Config.AgentTeam == chase.Police

	best := -1
	bestScore := 0.0
	for i, a := range actions {
		move, ok := a.(*pursuit.JointMove)
		if !ok {
			continue
		}
		agents, err := s.Preview(move)
		if err != nil {
			continue
		}
		score := 0.0
		for _, p := range agents {
			score += chase.PositionRating(p, s.Roster.Adversaries)
		}
		if best < 0 || (pursue && score < bestScore) || (!pursue && score > bestScore) {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return actions[0], true
	}
	return actions[best], true
}

func (c *ChaserPolicy) Update(int, types.State, types.Action, float64, types.State) {}

func (c *ChaserPolicy) UpdateIteration(int, *types.Trace) {}

func (c *ChaserPolicy) Reset() {}
