package chase

import (
	"bytes"
	"log"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnv(t *testing.T, mutate func(*Config)) *Environment {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	env, err := NewEnvironment(cfg, WithSeed(1))
	require.NoError(t, err)
	return env
}

// place overrides the roster drawn at reset
func place(t *testing.T, env *Environment, agents, adversaries []Position) {
	t.Helper()
	_, err := env.Reset()
	require.NoError(t, err)
	env.roster = Roster{Agents: agents, Adversaries: adversaries}
}

func staticEnv(t *testing.T, mutate func(*Config)) *Environment {
	return newTestEnv(t, func(c *Config) {
		c.AdversaryMode = StaticMode
		c.AdversaryNum = 1
		if mutate != nil {
			mutate(c)
		}
	})
}

func TestStepBeforeReset(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, Uninitialized, env.Phase())
	_, err := env.Step(DiscreteAction(0))
	require.ErrorIs(t, err, ErrNotReset)
}

func TestCatchEndsEpisode(t *testing.T) {
	env := staticEnv(t, func(c *Config) { c.CatchDistance = 3 })
	place(t, env, []Position{{5, 5}}, []Position{{5, 6}})

	res, err := env.Step(DiscreteAction(StayIndex))
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Reward)
	assert.Equal(t, 1, res.Captured)
	assert.True(t, res.Done)
	assert.Empty(t, env.Roster().Adversaries)
	require.NotNil(t, res.Info)
	assert.Equal(t, EpisodeInfo{TotalReward: 1, TotalSteps: 1, Episode: 1, AverageLast10: 1}, *res.Info)
	assert.Equal(t, Done, env.Phase())

	_, err = env.Step(DiscreteAction(0))
	require.ErrorIs(t, err, ErrEpisodeDone)

	_, err = env.Reset()
	require.NoError(t, err)
	assert.Equal(t, Ready, env.Phase())
}

func TestStepLimit(t *testing.T) {
	env := staticEnv(t, func(c *Config) { c.MaxEpisodeSteps = 3 })
	place(t, env, []Position{{5, 5}}, []Position{{0, 0}})

	for i := 1; i <= 3; i++ {
		res, err := env.Step(DiscreteAction(StayIndex))
		require.NoError(t, err)
		assert.Equal(t, -1.0, res.Reward)
		assert.Equal(t, i == 3, res.Done, "step %d", i)
		if i < 3 {
			assert.Nil(t, res.Info)
			assert.Equal(t, Running, env.Phase())
		} else {
			require.NotNil(t, res.Info)
			assert.Equal(t, -3.0, res.Info.TotalReward)
			assert.Equal(t, 3, res.Info.TotalSteps)
		}
	}
}

func TestRollingAverageOverLastTenEpisodes(t *testing.T) {
	env := staticEnv(t, func(c *Config) { c.MaxEpisodeSteps = 2 })

	var info *EpisodeInfo
	for i := 0; i < 10; i++ {
		place(t, env, []Position{{5, 5}}, []Position{{5, 6}})
		res, err := env.Step(DiscreteAction(StayIndex))
		require.NoError(t, err)
		require.True(t, res.Done)
		info = res.Info
	}
	assert.Equal(t, 1.0, info.AverageLast10)

	for i := 0; i < 5; i++ {
		place(t, env, []Position{{5, 5}}, []Position{{0, 0}})
		for {
			res, err := env.Step(DiscreteAction(StayIndex))
			require.NoError(t, err)
			if res.Done {
				info = res.Info
				break
			}
		}
	}
	assert.Equal(t, 15, info.Episode)
	assert.Equal(t, -2.0, info.TotalReward)
	assert.InDelta(t, -0.5, info.AverageLast10, 1e-12)
}

func TestAdversariesReactToPreviousAgentPositions(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.AdversaryMode = SimpleMode
		c.AdversaryNum = 1
		c.AgentSpeed = 4
		c.CatchDistance = 0
	})
	place(t, env, []Position{{5, 3}}, []Position{{5, 5}})

	// the agent jumps past the thief, which still flees from (5, 3)
	_, err := env.Step(DiscreteAction(1))
	require.NoError(t, err)
	r := env.Roster()
	assert.Equal(t, []Position{{5, 7}}, r.Agents)
	assert.Equal(t, []Position{{5, 6}}, r.Adversaries)
}

func TestResetSpawnsByTeam(t *testing.T) {
	env := newTestEnv(t, nil)
	for i := 0; i < 50; i++ {
		_, err := env.Reset()
		require.NoError(t, err)
		r := env.Roster()
		require.Len(t, r.Agents, 1)
		require.Len(t, r.Adversaries, 5)
		for _, p := range r.Agents {
			require.True(t, p.X >= 4 && p.X <= 6 && p.Y >= 4 && p.Y <= 6)
		}
		for _, p := range r.Adversaries {
			require.True(t, (p.X <= 1 || p.X >= 9) && (p.Y <= 1 || p.Y >= 9))
		}
	}

	thief := newTestEnv(t, func(c *Config) { c.AgentTeam = Thief })
	_, err := thief.Reset()
	require.NoError(t, err)
	p := thief.Roster().Agents[0]
	assert.True(t, (p.X <= 1 || p.X >= 9) && (p.Y <= 1 || p.Y >= 9))
}

func TestPositionsStayInsideMap(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.AgentSpeed = 3
		c.AdversarySpeed = 2
		c.CatchDistance = 0
		c.MaxEpisodeSteps = 200
	})
	_, err := env.Reset()
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		res, err := env.Step(DiscreteAction(i % 5))
		require.NoError(t, err)
		r := env.Roster()
		for _, p := range append(r.Agents, r.Adversaries...) {
			require.True(t, p.X >= 0 && p.X <= 10 && p.Y >= 0 && p.Y <= 10, "%v at step %d", p, i)
		}
		if res.Done {
			break
		}
	}
}

func TestSameSeedReplays(t *testing.T) {
	run := func() ([]Observation, []Roster) {
		env, err := NewEnvironment(DefaultConfig(), WithSeed(99))
		require.NoError(t, err)
		obs, err := env.Reset()
		require.NoError(t, err)
		observations := []Observation{obs}
		rosters := []Roster{env.Roster()}
		for i := 0; i < 30; i++ {
			res, err := env.Step(DiscreteAction(i % 4))
			require.NoError(t, err)
			observations = append(observations, res.Observation)
			rosters = append(rosters, env.Roster())
			if res.Done {
				break
			}
		}
		return observations, rosters
	}
	obsA, rosterA := run()
	obsB, rosterB := run()
	assert.Equal(t, obsA, obsB)
	assert.Equal(t, rosterA, rosterB)
}

func TestIncrementalSpawnTermination(t *testing.T) {
	env := staticEnv(t, func(c *Config) {
		c.AdversaryNum = 2
		c.SpawnPolicy = IncrementalRandomSpawn
		c.InitAdversaryNum = 1
		c.MaxSpawnBatch = 2
	})
	place(t, env, []Position{{5, 5}}, []Position{{5, 5}})

	// the first thief is caught while a second one enters far away
	res, err := env.Step(DiscreteAction(StayIndex))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Captured)
	assert.False(t, res.Done)
	require.Len(t, env.Roster().Adversaries, 1)

	env.roster.Adversaries[0] = Position{5, 6}
	res, err = env.Step(DiscreteAction(StayIndex))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Captured)
	assert.True(t, res.Done)
}

func TestIncrementalSpawnGrowsRoster(t *testing.T) {
	env := staticEnv(t, func(c *Config) {
		c.AdversaryNum = 5
		c.SpawnPolicy = IncrementalRandomSpawn
		c.InitAdversaryNum = 1
		c.MaxSpawnBatch = 3
		c.CatchDistance = 0
	})
	_, err := env.Reset()
	require.NoError(t, err)
	require.Len(t, env.Roster().Adversaries, 1)

	prev := 1
	for i := 0; i < 10; i++ {
		res, err := env.Step(DiscreteAction(StayIndex))
		require.NoError(t, err)
		assert.False(t, res.Done)
		n := len(env.Roster().Adversaries)
		require.GreaterOrEqual(t, n, prev)
		require.LessOrEqual(t, n, 5)
		prev = n
	}
	assert.Equal(t, 5, prev)
}

func TestResetRejectsOverCapacity(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.ObservationFormat = CoordListFixed
		c.AdversaryNum = FixedCapacity
	})
	_, err := env.Reset()
	require.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, Uninitialized, env.Phase())
}

func TestFailedSpawnKeepsSpawnBudget(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.ObservationFormat = CoordListFixed
		c.SpawnPolicy = IncrementalRandomSpawn
		c.AdversaryNum = 600
		c.InitAdversaryNum = FixedCapacity - 1
		c.MaxSpawnBatch = 2
		c.AdversaryMode = StaticMode
	})
	_, err := env.Reset()
	require.NoError(t, err)
	before := env.Roster()
	require.Equal(t, 101, env.spawner.remaining)

	for i := 0; i < 3; i++ {
		_, err = env.Step(DiscreteAction(StayIndex))
		require.ErrorIs(t, err, ErrCapacityExceeded)
		assert.Equal(t, 101, env.spawner.remaining)
		assert.Equal(t, before, env.Roster())
		assert.Equal(t, Ready, env.Phase())
	}
}

func TestResetDoesNotPreallocateStepLimit(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.MaxEpisodeSteps = MaxEpisodeStepsLimit })
	_, err := env.Reset()
	require.NoError(t, err)
	assert.LessOrEqual(t, cap(env.rewardHist), rewardHistPrealloc)
}

func TestStepRejectsMalformedAction(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.Reset()
	require.NoError(t, err)
	before := env.Snapshot()
	_, err = env.Step(DiscreteAction(0, 1))
	require.ErrorIs(t, err, ErrInvalidAction)
	assert.Equal(t, before, env.Snapshot())
}

func TestSpaces(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, DiscreteSpace, env.ActionSpace().Kind)
	assert.Equal(t, 4, env.ActionSpace().N)
	assert.Equal(t, []int{800}, env.ObservationSpace().Shape)

	angle := newTestEnv(t, func(c *Config) {
		c.ActionEncoding = ContinuousAngle
		c.ObservationFormat = Grid3D
	})
	assert.Equal(t, BoxSpace, angle.ActionSpace().Kind)
	assert.True(t, angle.ActionSpace().Contains([]float64{2 * math.Pi}))
	assert.False(t, angle.ActionSpace().Contains([]float64{7}))
	assert.Equal(t, []int{20, 20, 2}, angle.ObservationSpace().Shape)

	vector := newTestEnv(t, func(c *Config) { c.ActionEncoding = ContinuousVector })
	assert.Equal(t, 2, vector.ActionSpace().Size())

	obs, err := env.Reset()
	require.NoError(t, err)
	assert.True(t, env.ObservationSpace().Contains(obs.Data))
}

func TestRenderSnapshot(t *testing.T) {
	env := staticEnv(t, nil)
	var frames []Snapshot
	renderer := RendererFunc(func(s Snapshot) { frames = append(frames, s) })

	env.Render(renderer)
	assert.Empty(t, frames)

	place(t, env, []Position{{5, 5}}, []Position{{0, 0}})
	action := DiscreteAction(1)
	_, err := env.Step(action)
	require.NoError(t, err)
	action[0][0] = 3

	before := env.Roster()
	env.Render(renderer)
	require.Len(t, frames, 1)
	assert.Equal(t, before, env.Roster())
	assert.Equal(t, DiscreteAction(1), frames[0].LastAction)
	assert.Equal(t, []Position{{5, 6}}, frames[0].Agents)
	assert.Equal(t, []float64{-1}, frames[0].RewardHistory)
	assert.Equal(t, "running", frames[0].Phase)

	frames[0].Agents[0] = Position{0, 0}
	assert.Equal(t, before, env.Roster())
}

func TestEpisodeLogLine(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.AdversaryMode = StaticMode
	cfg.MaxEpisodeSteps = 1
	env, err := NewEnvironment(cfg, WithSeed(3), WithLogger(log.New(&buf, "", 0)))
	require.NoError(t, err)
	_, err = env.Reset()
	require.NoError(t, err)
	res, err := env.Step(DiscreteAction(StayIndex))
	require.NoError(t, err)
	require.True(t, res.Done)
	assert.Contains(t, buf.String(), "episode 1 done")
}
