package chase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestNormalizeResolvesAliases(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ActionEncoding = "continuous_vector"
	cfg.SpawnPolicy = ""
	out, err := cfg.Normalize()
	require.NoError(t, err)
	assert.Equal(t, ContinuousVector, out.ActionEncoding)
	assert.Equal(t, FixedSpawn, out.SpawnPolicy)
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"team":          func(c *Config) { c.AgentTeam = "robber" },
		"mode":          func(c *Config) { c.AdversaryMode = "smart" },
		"format":        func(c *Config) { c.ObservationFormat = "image" },
		"encoding":      func(c *Config) { c.ActionEncoding = "joystick" },
		"spawn":         func(c *Config) { c.SpawnPolicy = "waves" },
		"agents":        func(c *Config) { c.AgentNum = 0 },
		"adversaries":   func(c *Config) { c.AdversaryNum = -1 },
		"map":           func(c *Config) { c.MapSize = 0 },
		"steps":         func(c *Config) { c.MaxEpisodeSteps = 0 },
		"speed":         func(c *Config) { c.AgentSpeed = -1 },
		"catch":         func(c *Config) { c.CatchDistance = -0.5 },
		"grid scale":    func(c *Config) { c.GridScale = 0 },
		"initial spawn": func(c *Config) { c.SpawnPolicy = IncrementalRandomSpawn; c.InitAdversaryNum = 6 },
		"spawn batch":   func(c *Config) { c.SpawnPolicy = IncrementalRandomSpawn; c.MaxSpawnBatch = 0 },
		"huge steps":    func(c *Config) { c.MaxEpisodeSteps = 1 << 60 },
		"huge map":      func(c *Config) { c.MapSize = 1 << 31 },
		"huge grid":     func(c *Config) { c.MapSize = 1000; c.GridScale = 2 },
		"huge count":    func(c *Config) { c.AdversaryNum = MaxEntities + 1 },
		"nan speed":     func(c *Config) { c.AgentSpeed = math.NaN() },
		"inf catch":     func(c *Config) { c.CatchDistance = math.Inf(1) },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		_, err := NewEnvironment(cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig, name)
	}
}

func TestGridScaleIgnoredForCoordinates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ObservationFormat = CoordListUnfixed
	cfg.GridScale = 0
	require.NoError(t, cfg.Validate())
}
