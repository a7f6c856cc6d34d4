package types

import (
	"golang.org/x/exp/rand"
)

type Policy interface {
	// called once at the end of each episode with its trace
	UpdateIteration(int, *Trace)
	NextAction(int, State, []Action) (Action, bool)
	// step, state, action, reward, next state
	Update(int, State, Action, float64, State)
	Reset()
}

// Recorder is implemented by policies that can dump their learned values
type Recorder interface {
	Record(path string) error
}

type RandomPolicy struct {
	rand *rand.Rand
}

var _ Policy = &RandomPolicy{}

func NewRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomPolicy) Reset() {

}

func (r *RandomPolicy) UpdateIteration(_ int, _ *Trace) {

}

func (r *RandomPolicy) NextAction(step int, state State, actions []Action) (Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	i := r.rand.Intn(len(actions))
	return actions[i], true
}

func (r *RandomPolicy) Update(_ int, _ State, _ Action, _ float64, _ State) {}
