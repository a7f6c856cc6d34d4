package policies

import (
	"github.com/zeu5/pursuit-rl/types"
	"golang.org/x/exp/rand"
)

// QLearningPolicy is epsilon-greedy tabular Q-learning updated after every step
type QLearningPolicy struct {
	qTable   *QTable
	alpha    float64
	discount float64
	epsilon  float64
	rand     *rand.Rand
}

var _ types.Policy = &QLearningPolicy{}
var _ types.Recorder = &QLearningPolicy{}

func NewQLearningPolicy(alpha, discount, epsilon float64, seed uint64) *QLearningPolicy {
	return &QLearningPolicy{
		qTable:   NewQTable(),
		alpha:    alpha,
		discount: discount,
		epsilon:  epsilon,
		rand:     rand.New(rand.NewSource(seed)),
	}
}

func (q *QLearningPolicy) QTable() *QTable {
	return q.qTable
}

func (q *QLearningPolicy) Record(path string) error {
	return q.qTable.Record(path)
}

func (q *QLearningPolicy) Reset() {
	q.qTable = NewQTable()
}

func hashes(actions []types.Action) ([]string, map[string]types.Action) {
	actionsMap := make(map[string]types.Action, len(actions))
	availableActions := make([]string, len(actions))
	for i, a := range actions {
		aHash := a.Hash()
		actionsMap[aHash] = a
		availableActions[i] = aHash
	}
	return availableActions, actionsMap
}

func (q *QLearningPolicy) NextAction(step int, state types.State, actions []types.Action) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	if q.rand.Float64() < q.epsilon {
		return actions[q.rand.Intn(len(actions))], true
	}

	availableActions, actionsMap := hashes(actions)
	maxAction, _ := q.qTable.MaxAmong(state.Hash(), availableActions, 0)
	if maxAction == "" {
		return nil, false
	}
	return actionsMap[maxAction], true
}

// Update moves Q(s, a) towards reward + discount * max Q(s'). Terminal
// states, which offer no actions, are worth nothing.
func (q *QLearningPolicy) Update(_ int, state types.State, action types.Action, reward float64, nextState types.State) {
	nextStateVal := 0.0
	if len(nextState.Actions()) > 0 {
		_, nextStateVal = q.qTable.Max(nextState.Hash(), 0)
	}
	curVal := q.qTable.Get(state.Hash(), action.Hash(), 0)
	newVal := (1-q.alpha)*curVal + q.alpha*(reward+q.discount*nextStateVal)
	q.qTable.Set(state.Hash(), action.Hash(), newVal)
}

func (q *QLearningPolicy) UpdateIteration(_ int, _ *types.Trace) {}
