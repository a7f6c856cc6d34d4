package chase

import (
	"log"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// Phase of the episode state machine
type Phase int

const (
	Uninitialized Phase = iota
	Ready
	Running
	Done
)

func (p Phase) String() string {
	switch p {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Done:
		return "done"
	default:
		return "uninitialized"
	}
}

const rewardWindow = 10

// reward history grows past this on long episodes
const rewardHistPrealloc = 1024

// EpisodeInfo is attached to the terminal step of an episode
type EpisodeInfo struct {
	TotalReward   float64 `json:"total_reward"`
	TotalSteps    int     `json:"total_steps"`
	Episode       int     `json:"total_episode"`
	AverageLast10 float64 `json:"total_reward_average_last_10"`
}

// StepResult is the outcome of a single step. Info is nil except on the
// terminal step.
type StepResult struct {
	Observation Observation  `json:"observation"`
	Reward      float64      `json:"reward"`
	Done        bool         `json:"done"`
	Captured    int          `json:"captured"`
	Info        *EpisodeInfo `json:"info,omitempty"`
}

type Option func(*Environment)

// WithSeed makes the environment replayable
func WithSeed(seed uint64) Option {
	return func(e *Environment) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRand hands an existing generator to the environment, which becomes its only user
func WithRand(rng *rand.Rand) Option {
	return func(e *Environment) {
		e.rng = rng
	}
}

// WithLogger logs a line at the end of every episode
func WithLogger(logger *log.Logger) Option {
	return func(e *Environment) {
		e.logger = logger
	}
}

// Environment is the police/thief chase. It is owned by a single caller that
// alternates Reset and Step, no method is safe for concurrent use.
type Environment struct {
	cfg     Config
	encoder *Encoder
	spawner *spawner
	area    spawnArea
	rng     *rand.Rand
	logger  *log.Logger

	observationSpace Space
	actionSpace      Space

	phase      Phase
	roster     Roster
	elapsed    int
	episode    int
	rewardHist []float64
	lastTotals []float64

	// render only
	lastAction JointAction
	lastCaught bool
}

// NewEnvironment validates the configuration and builds an environment in
// the Uninitialized phase.
func NewEnvironment(cfg Config, opts ...Option) (*Environment, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	encoder, err := NewEncoder(cfg.ObservationFormat, cfg.MapSize, cfg.GridScale, cfg.AdversaryNum)
	if err != nil {
		return nil, err
	}
	e := &Environment{
		cfg:         cfg,
		encoder:     encoder,
		spawner:     newSpawner(cfg),
		area:        newSpawnArea(cfg.MapSize),
		actionSpace: actionSpace(cfg.ActionEncoding),
		phase:       Uninitialized,
		lastTotals:  make([]float64, 0, rewardWindow),
	}
	e.observationSpace = NewBoxSpace(0, 1, encoder.Shape(cfg.AgentNum, cfg.AdversaryNum)...)
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return e, nil
}

func (e *Environment) Config() Config {
	return e.cfg
}

func (e *Environment) Phase() Phase {
	return e.phase
}

func (e *Environment) ObservationSpace() Space {
	return e.observationSpace
}

func (e *Environment) ActionSpace() Space {
	return e.actionSpace
}

// Roster returns a copy of the current positions
func (e *Environment) Roster() Roster {
	return e.roster.Clone()
}

func (e *Environment) adversaryTeam() Team {
	return e.cfg.AgentTeam.Opponent()
}

// Reset starts a new episode and returns its first observation
func (e *Environment) Reset() (Observation, error) {
	initial := e.spawner.reset()
	e.roster = Roster{
		Agents:      e.area.sampleN(e.cfg.AgentTeam, e.cfg.AgentNum, e.rng),
		Adversaries: e.area.sampleN(e.adversaryTeam(), initial, e.rng),
	}
	e.elapsed = 0
	e.episode++
	e.rewardHist = make([]float64, 0, min(e.cfg.MaxEpisodeSteps, rewardHistPrealloc))
	e.lastAction = nil
	e.lastCaught = false

	obs, err := e.encoder.Encode(e.roster)
	if err != nil {
		e.phase = Uninitialized
		return Observation{}, err
	}
	e.phase = Ready
	return obs, nil
}

// Step advances the episode by one move of every entity
func (e *Environment) Step(action JointAction) (*StepResult, error) {
	switch e.phase {
	case Uninitialized:
		return nil, errors.Wrap(ErrNotReset, "step called before reset")
	case Done:
		return nil, errors.Wrapf(ErrEpisodeDone, "episode %d ended after %d steps", e.episode, e.elapsed)
	}

	mapSize := float64(e.cfg.MapSize)
	agents, err := Move(e.roster.Agents, action, e.cfg.AgentSpeed, mapSize, e.cfg.ActionEncoding)
	if err != nil {
		return nil, err
	}

	roster := e.roster.Clone()
	spawned := e.spawner.draw(e.rng)
	if spawned > 0 {
		roster.Adversaries = append(roster.Adversaries, e.area.sampleN(e.adversaryTeam(), spawned, e.rng)...)
	}
	// adversaries react to where the agents were before this move
	adversaries := AdvanceAll(roster.Adversaries, roster.Agents, e.cfg.AdversarySpeed, mapSize, e.cfg.AdversaryMode, e.adversaryTeam(), e.rng)
	survivors, captured := Detect(agents, adversaries, e.cfg.CatchDistance)

	next := Roster{Agents: agents, Adversaries: survivors}
	obs, err := e.encoder.Encode(next)
	if err != nil {
		return nil, err
	}

	e.spawner.commit(spawned)
	e.roster = next
	e.lastAction = action.Clone()
	e.lastCaught = captured > 0
	e.elapsed++

	done := e.isDone()
	reward := -1.0
	if captured > 0 {
		reward = float64(captured)
	}
	e.rewardHist = append(e.rewardHist, reward)

	result := &StepResult{
		Observation: obs,
		Reward:      reward,
		Done:        done,
		Captured:    captured,
	}
	if done {
		e.phase = Done
		result.Info = e.finishEpisode()
	} else {
		e.phase = Running
	}
	return result, nil
}

func (e *Environment) isDone() bool {
	allCaught := len(e.roster.Adversaries) == 0 && e.spawner.exhausted()
	return allCaught || e.elapsed >= e.cfg.MaxEpisodeSteps
}

func (e *Environment) finishEpisode() *EpisodeInfo {
	total := floats.Sum(e.rewardHist)
	e.lastTotals = append(e.lastTotals, total)
	if len(e.lastTotals) > rewardWindow {
		e.lastTotals = e.lastTotals[1:]
	}
	info := &EpisodeInfo{
		TotalReward:   total,
		TotalSteps:    e.elapsed,
		Episode:       e.episode,
		AverageLast10: floats.Sum(e.lastTotals) / float64(len(e.lastTotals)),
	}
	if e.logger != nil {
		e.logger.Printf("episode %d done: reward %.0f in %d steps, last %d avg %.2f",
			info.Episode, info.TotalReward, info.TotalSteps, len(e.lastTotals), info.AverageLast10)
	}
	return info
}

// Snapshot copies the state needed by renderers
func (e *Environment) Snapshot() Snapshot {
	hist := make([]float64, len(e.rewardHist))
	copy(hist, e.rewardHist)
	return Snapshot{
		Phase:         e.phase.String(),
		MapSize:       e.cfg.MapSize,
		AgentTeam:     e.cfg.AgentTeam,
		Agents:        copyPositions(e.roster.Agents),
		Adversaries:   copyPositions(e.roster.Adversaries),
		RewardHistory: hist,
		Episode:       e.episode,
		Steps:         e.elapsed,
		LastAction:    e.lastAction.Clone(),
		Caught:        e.lastCaught,
		Done:          e.phase == Done,
	}
}

// Render hands a snapshot to the renderer. Nothing is rendered before the
// first reset.
func (e *Environment) Render(r Renderer) {
	if e.phase == Uninitialized || r == nil {
		return
	}
	r.Render(e.Snapshot())
}
