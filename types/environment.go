package types

// Environment is driven by the agent one episode at a time
type Environment interface {
	// Reset called at the start of each episode
	Reset() (State, error)
	// Step returns the next state, the reward of the transition and whether
	// the episode is over
	Step(Action) (State, float64, bool, error)
}

// State of the system that RL policies observe
type State interface {
	// Indexed by the Hash
	// Should be deterministic
	Hash() string
	// Actions possible from the state, empty for terminal states
	Actions() []Action
}

// And Action that RL policy can take
type Action interface {
	// Index of the action
	// Should be deterministic
	Hash() string
}

type StateAbstractor func(State) string
