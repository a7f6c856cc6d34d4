package pursuit

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/zeu5/pursuit-rl/chase"
	"github.com/zeu5/pursuit-rl/types"
)

// MaxJointActions bounds the product of per-agent choices
const MaxJointActions = 4096

// Environment exposes a chase environment to the tabular RL harness. States
// are hashed from the grid cells of the roster, actions are every combination
// of a small set of per-agent moves.
type Environment struct {
	env      *chase.Environment
	cells    *chase.Encoder
	moves    []types.Action
	renderer chase.Renderer
}

var _ types.Environment = &Environment{}

type Option func(*Environment)

// WithRenderer renders a snapshot after every reset and step
func WithRenderer(r chase.Renderer) Option {
	return func(e *Environment) {
		e.renderer = r
	}
}

// NewEnvironment wraps env. hashScale is the number of hash cells per map
// unit, values below 1 use 1.
func NewEnvironment(env *chase.Environment, hashScale int, opts ...Option) (*Environment, error) {
	cfg := env.Config()
	if hashScale < 1 {
		hashScale = 1
	}
	cells, err := chase.NewEncoder(chase.Grid3D, cfg.MapSize, hashScale, 1)
	if err != nil {
		return nil, err
	}
	moves, err := JointMoves(cfg.ActionEncoding, cfg.AgentNum)
	if err != nil {
		return nil, err
	}
	e := &Environment{
		env:   env,
		cells: cells,
		moves: moves,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Chase returns the wrapped environment
func (e *Environment) Chase() *chase.Environment {
	return e.env
}

func (e *Environment) Reset() (types.State, error) {
	obs, err := e.env.Reset()
	if err != nil {
		return nil, err
	}
	e.env.Render(e.renderer)
	return e.state(obs, 0, false, nil), nil
}

func (e *Environment) Step(a types.Action) (types.State, float64, bool, error) {
	move, ok := a.(*JointMove)
	if !ok {
		return nil, 0, false, errors.Wrapf(chase.ErrInvalidAction, "unexpected action %T", a)
	}
	res, err := e.env.Step(move.Values)
	if err != nil {
		return nil, 0, false, err
	}
	e.env.Render(e.renderer)
	return e.state(res.Observation, res.Captured, res.Done, res.Info), res.Reward, res.Done, nil
}

func (e *Environment) state(obs chase.Observation, captured int, done bool, info *chase.EpisodeInfo) *State {
	roster := e.env.Roster()
	return &State{
		Roster:      roster,
		Observation: obs,
		Captured:    captured,
		Done:        done,
		Info:        info,
		Config:      e.env.Config(),
		hash:        e.hash(roster),
		actions:     e.moves,
	}
}

func (e *Environment) cellKeys(ps []chase.Position) []string {
	keys := make([]string, len(ps))
	for i, p := range ps {
		x, y := e.cells.Cell(p)
		keys[i] = fmt.Sprintf("%d:%d", x, y)
	}
	return keys
}

// agents keep their order, adversaries are interchangeable
func (e *Environment) hash(r chase.Roster) string {
	adversaries := e.cellKeys(r.Adversaries)
	sort.Strings(adversaries)
	return strings.Join(e.cellKeys(r.Agents), ";") + "|" + strings.Join(adversaries, ";")
}

// State is the roster after a reset or step
type State struct {
	Roster      chase.Roster
	Observation chase.Observation
	Captured    int
	Done        bool
	// only set on the terminal step
	Info   *chase.EpisodeInfo
	Config chase.Config

	hash    string
	actions []types.Action
}

var _ types.State = &State{}

func (s *State) Hash() string {
	return s.hash
}

func (s *State) Actions() []types.Action {
	if s.Done {
		return nil
	}
	return s.actions
}

// Preview returns where the agents would be after the move, adversaries ignored
func (s *State) Preview(m *JointMove) ([]chase.Position, error) {
	return chase.Move(s.Roster.Agents, m.Values, s.Config.AgentSpeed, float64(s.Config.MapSize), s.Config.ActionEncoding)
}

// JointMove is one action per agent
type JointMove struct {
	Name   string
	Values chase.JointAction
}

var _ types.Action = &JointMove{}

func (m *JointMove) Hash() string {
	return m.Name
}

type choice struct {
	name   string
	action chase.AgentAction
}

func agentChoices(enc chase.ActionEncoding) []choice {
	switch enc {
	case chase.ContinuousAngle:
		out := make([]choice, 8)
		for k := range out {
			out[k] = choice{fmt.Sprintf("%d", k*45), chase.AgentAction{float64(k) * math.Pi / 4}}
		}
		return out
	case chase.ContinuousVector:
		out := []choice{{"stay", chase.AgentAction{0, 0}}}
		for _, dx := range []float64{-1, 0, 1} {
			for _, dy := range []float64{-1, 0, 1} {
				if dx == 0 && dy == 0 {
					continue
				}
				out = append(out, choice{fmt.Sprintf("%g:%g", dx, dy), chase.AgentAction{dx, dy}})
			}
		}
		return out
	default:
		names := []string{"up", "down", "left", "right", "stay"}
		out := make([]choice, len(names))
		for i, n := range names {
			out[i] = choice{n, chase.AgentAction{float64(i)}}
		}
		return out
	}
}

// JointMoves enumerates every combination of per-agent choices
func JointMoves(enc chase.ActionEncoding, agents int) ([]types.Action, error) {
	choices := agentChoices(enc)
	total := 1
	for i := 0; i < agents; i++ {
		total *= len(choices)
		if total > MaxJointActions {
			return nil, errors.Wrapf(chase.ErrInvalidConfig, "%d agents with %d moves each exceed %d joint actions", agents, len(choices), MaxJointActions)
		}
	}
	out := make([]types.Action, 0, total)
	var build func(prefix []choice)
	build = func(prefix []choice) {
		if len(prefix) == agents {
			names := make([]string, agents)
			values := make(chase.JointAction, agents)
			for i, c := range prefix {
				names[i] = c.name
				values[i] = append(chase.AgentAction(nil), c.action...)
			}
			out = append(out, &JointMove{Name: strings.Join(names, ","), Values: values})
			return
		}
		for _, c := range choices {
			build(append(prefix[:len(prefix):len(prefix)], c))
		}
	}
	build(make([]choice, 0, agents))
	return out, nil
}
