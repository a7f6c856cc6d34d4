package chase

// Snapshot is a read-only copy of the environment state for external renderers
type Snapshot struct {
	Phase         string      `json:"phase"`
	MapSize       int         `json:"map_size"`
	AgentTeam     Team        `json:"agent_team"`
	Agents        []Position  `json:"agents"`
	Adversaries   []Position  `json:"adversaries"`
	RewardHistory []float64   `json:"reward_history"`
	Episode       int         `json:"episode"`
	Steps         int         `json:"steps"`
	LastAction    JointAction `json:"last_action,omitempty"`
	Caught        bool        `json:"caught"`
	Done          bool        `json:"done"`
}

// Renderer consumes snapshots, it must not hold on to the environment
type Renderer interface {
	Render(Snapshot)
}

// RendererFunc adapts a function to a Renderer
type RendererFunc func(Snapshot)

func (f RendererFunc) Render(s Snapshot) {
	f(s)
}
