package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/pursuit-rl/chase"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoadFileThenEnvironment(t *testing.T) {
	file := filepath.Join(t.TempDir(), "pursuit.env")
	require.NoError(t, os.WriteFile(file, []byte(
		"PURSUIT_MAP_SIZE=20\n"+
			"PURSUIT_ADVERSARY_ACTION=simple\n"+
			"PURSUIT_STORE=sqlite\n"+
			"PURSUIT_STORE_DSN=episodes.db\n"+
			"PURSUIT_SEED=9\n"), 0644))
	t.Setenv("PURSUIT_MAP_SIZE", "30")
	t.Setenv("PURSUIT_ACTION_TYPE", "continuous_vector")
	t.Setenv("PURSUIT_MIN_CATCH_DIST", "1.5")

	s, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, 30, s.Env.MapSize)
	assert.Equal(t, chase.SimpleMode, s.Env.AdversaryMode)
	assert.Equal(t, chase.ActionEncoding("continuous_vector"), s.Env.ActionEncoding)
	assert.Equal(t, 1.5, s.Env.CatchDistance)
	assert.Equal(t, "sqlite", s.StoreKind)
	assert.Equal(t, "episodes.db", s.StoreDSN)
	assert.Equal(t, uint64(9), s.Seed)
}

func TestLoadEmptyVariableIsUnset(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PURSUIT_AGENT_NUM", "")
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Env.AgentNum)
}

func TestLoadErrors(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PURSUIT_AGENT_NUM", "two")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PURSUIT_AGENT_NUM")

	t.Setenv("PURSUIT_AGENT_NUM", "2")
	t.Setenv("PURSUIT_STATE_FORMAT", "image")
	_, err = Load("")
	require.ErrorIs(t, err, chase.ErrInvalidConfig)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoadReadsDefaultFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultEnvFile), []byte("PURSUIT_LISTEN=0.0.0.0:9000\n"), 0644))
	chdir(t, dir)
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", s.ListenAddr)
}

func TestReadSkipsValidation(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PURSUIT_MAP_SIZE", "0")
	s, err := Read("")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Env.MapSize)

	_, err = Load("")
	require.ErrorIs(t, err, chase.ErrInvalidConfig)
}
