package types

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corridor is a line of cells, the episode ends at the last cell
type corridor struct {
	length int
	pos    int
	fail   bool
}

type cell struct {
	pos, length int
}

func (c cell) Hash() string { return fmt.Sprintf("%d", c.pos) }

func (c cell) Actions() []Action {
	if c.pos == c.length-1 {
		return nil
	}
	return []Action{step("left"), step("right")}
}

type step string

func (s step) Hash() string { return string(s) }

func (c *corridor) Reset() (State, error) {
	if c.fail {
		return nil, errors.New("broken")
	}
	c.pos = 0
	return cell{c.pos, c.length}, nil
}

func (c *corridor) Step(a Action) (State, float64, bool, error) {
	if a.Hash() == "right" {
		c.pos++
	} else if c.pos > 0 {
		c.pos--
	}
	done := c.pos == c.length-1
	reward := -1.0
	if done {
		reward = 1
	}
	return cell{c.pos, c.length}, reward, done, nil
}

// alwaysRight records the updates it receives
type alwaysRight struct {
	updates    int
	iterations int
}

func (p *alwaysRight) UpdateIteration(int, *Trace) { p.iterations++ }
func (p *alwaysRight) NextAction(_ int, _ State, actions []Action) (Action, bool) {
	return actions[1], true
}
func (p *alwaysRight) Update(int, State, Action, float64, State) { p.updates++ }
func (p *alwaysRight) Reset() { p.updates, p.iterations = 0, 0 }

func TestAgentEpisodeStopsWhenDone(t *testing.T) {
	policy := &alwaysRight{}
	agent := NewAgent(&AgentConfig{Episodes: 3, Horizon: 100, Policy: policy, Environment: &corridor{length: 4}})
	require.NoError(t, agent.Run(context.Background()))

	require.Len(t, agent.Traces(), 3)
	trace := agent.Traces()[0]
	assert.Equal(t, 3, trace.Len())
	assert.Equal(t, -1.0, trace.TotalReward())
	_, a, r, ns, ok := trace.Last()
	require.True(t, ok)
	assert.Equal(t, "right", a.Hash())
	assert.Equal(t, 1.0, r)
	assert.Equal(t, "3", ns.Hash())
	assert.Equal(t, 9, policy.updates)
	assert.Equal(t, 3, policy.iterations)
}

func TestAgentHorizonCutsEpisode(t *testing.T) {
	agent := NewAgent(&AgentConfig{Episodes: 1, Horizon: 2, Policy: &alwaysRight{}, Environment: &corridor{length: 10}})
	trace, err := agent.RunEpisode(0)
	require.NoError(t, err)
	assert.Equal(t, 2, trace.Len())
}

func TestAgentPropagatesResetError(t *testing.T) {
	agent := NewAgent(&AgentConfig{Episodes: 1, Policy: &alwaysRight{}, Environment: &corridor{length: 3, fail: true}})
	require.Error(t, agent.Run(context.Background()))
}

func TestAgentStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	agent := NewAgent(&AgentConfig{Episodes: 5, Policy: &alwaysRight{}, Environment: &corridor{length: 3}})
	require.ErrorIs(t, agent.Run(ctx), context.Canceled)
	assert.Empty(t, agent.Traces())
}

func TestTracePrefixAndJSON(t *testing.T) {
	trace := NewTrace()
	trace.Append(0, cell{0, 3}, step("right"), -1, cell{1, 3})
	trace.Append(1, cell{1, 3}, step("right"), 1, cell{2, 3})

	prefix, ok := trace.GetPrefix(1)
	require.True(t, ok)
	assert.Equal(t, 1, prefix.Len())
	_, ok = trace.GetPrefix(3)
	assert.False(t, ok)

	sliced := trace.Slice(1, 2)
	s, _, r, _, ok := sliced.Get(0)
	require.True(t, ok)
	assert.Equal(t, "1", s.Hash())
	assert.Equal(t, 1.0, r)
	_, _, _, _, ok = trace.Get(2)
	assert.False(t, ok)

	bs, err := json.Marshal(trace)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"state":"0","action":"right","reward":-1,"next_state":"1"},
		{"state":"1","action":"right","reward":1,"next_state":"2"}]`, string(bs))
}

func TestRandomPolicyChoosesAmongActions(t *testing.T) {
	policy := NewRandomPolicy(1)
	actions := []Action{step("left"), step("right")}
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		a, ok := policy.NextAction(i, cell{0, 3}, actions)
		require.True(t, ok)
		seen[a.Hash()] = true
	}
	assert.Len(t, seen, 2)
	_, ok := policy.NextAction(0, cell{2, 3}, nil)
	assert.False(t, ok)
}

func TestCoverageAnalyzer(t *testing.T) {
	agent := NewAgent(&AgentConfig{Episodes: 2, Policy: &alwaysRight{}, Environment: &corridor{length: 3}})
	require.NoError(t, agent.Run(context.Background()))

	coverage := PureCoverage()
	for i, trace := range agent.Traces() {
		coverage.Analyze(0, i, "right", trace)
	}
	assert.Equal(t, []float64{3, 3}, coverage.DataSet())
	coverage.Reset()
	assert.Empty(t, coverage.DataSet())
}

func TestComparisonRecordsResults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	c, err := NewComparison(&ComparisonConfig{
		Runs:         1,
		Episodes:     4,
		Horizon:      20,
		RecordPath:   dir,
		RecordTraces: true,
	})
	require.NoError(t, err)

	var compared []string
	c.AddAnalysis("coverage", PureCoverage(), func(run int, names []string, ds []DataSet) error {
		compared = names
		require.Len(t, ds, 2)
		assert.Len(t, ds[0].([]float64), 4)
		return nil
	})
	c.AddExperiment(NewExperiment("right", &alwaysRight{}, &corridor{length: 5}))
	c.AddExperiment(NewExperiment("random", NewRandomPolicy(2), &corridor{length: 5}))
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []string{"right", "random"}, compared)
	assert.FileExists(t, filepath.Join(dir, "comparison_config.json"))
	bs, err := os.ReadFile(filepath.Join(dir, "traces", "right_0.jsonl"))
	require.NoError(t, err)
	assert.NotEmpty(t, bs)
}

func TestComparisonPlotsCoverage(t *testing.T) {
	dir := t.TempDir()
	c, err := NewComparison(&ComparisonConfig{Runs: 1, Episodes: 3, Horizon: 10, RecordPath: filepath.Join(dir, "results")})
	require.NoError(t, err)
	c.AddAnalysis("coverage", PureCoverage(), PureCoveragePlotter(filepath.Join(dir, "plots")))
	c.AddExperiment(NewExperiment("right", &alwaysRight{}, &corridor{length: 4}))
	require.NoError(t, c.Run(context.Background()))
	assert.FileExists(t, filepath.Join(dir, "plots", "0_pure_coverage.png"))
}
