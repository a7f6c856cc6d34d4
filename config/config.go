// Package config assembles the settings of the command line tools from
// defaults, an optional .env file and PURSUIT_* environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/zeu5/pursuit-rl/chase"
)

// Prefix of every environment variable read by Load
const Prefix = "PURSUIT_"

// DefaultEnvFile is read when no file is named and it exists
const DefaultEnvFile = ".env"

type Settings struct {
	Env chase.Config

	StoreKind  string
	StoreDSN   string
	ListenAddr string
	Seed       uint64
}

func Defaults() Settings {
	return Settings{
		Env:        chase.DefaultConfig(),
		StoreKind:  "memory",
		StoreDSN:   "",
		ListenAddr: "127.0.0.1:8080",
		Seed:       0,
	}
}

type source struct {
	file map[string]string
}

// process variables win over the file, empty values count as unset
func (s source) lookup(name string) (string, bool) {
	key := Prefix + name
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, true
	}
	v, ok := s.file[key]
	return v, ok && v != ""
}

func (s source) setString(name string, dst *string) {
	if v, ok := s.lookup(name); ok {
		*dst = v
	}
}

func (s source) setInt(name string, dst *int) error {
	v, ok := s.lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Wrapf(err, "%s%s", Prefix, name)
	}
	*dst = n
	return nil
}

func (s source) setFloat(name string, dst *float64) error {
	v, ok := s.lookup(name)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return errors.Wrapf(err, "%s%s", Prefix, name)
	}
	*dst = f
	return nil
}

func (s source) setUint(name string, dst *uint64) error {
	v, ok := s.lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "%s%s", Prefix, name)
	}
	*dst = n
	return nil
}

// Load reads the settings and validates the environment configuration
func Load(envFile string) (Settings, error) {
	s, err := Read(envFile)
	if err != nil {
		return s, err
	}
	return s, s.Env.Validate()
}

// Read returns the defaults overridden by envFile and then by the process
// environment. An empty envFile reads DefaultEnvFile when it exists.
func Read(envFile string) (Settings, error) {
	s := Defaults()
	src := source{file: map[string]string{}}
	if envFile == "" {
		if _, err := os.Stat(DefaultEnvFile); err == nil {
			envFile = DefaultEnvFile
		}
	}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		if err != nil {
			return s, errors.Wrapf(err, "reading %s", envFile)
		}
		src.file = values
	}

	var team, mode, format, encoding, spawn string
	src.setString("AGENT_TEAM", &team)
	src.setString("ADVERSARY_ACTION", &mode)
	src.setString("STATE_FORMAT", &format)
	src.setString("ACTION_TYPE", &encoding)
	src.setString("SPAWN_POLICY", &spawn)
	if team != "" {
		s.Env.AgentTeam = chase.Team(team)
	}
	if mode != "" {
		s.Env.AdversaryMode = chase.AdversaryMode(mode)
	}
	if format != "" {
		s.Env.ObservationFormat = chase.ObservationFormat(format)
	}
	if encoding != "" {
		s.Env.ActionEncoding = chase.ActionEncoding(encoding)
	}
	if spawn != "" {
		s.Env.SpawnPolicy = chase.SpawnPolicy(spawn)
	}

	for _, set := range []error{
		src.setInt("AGENT_NUM", &s.Env.AgentNum),
		src.setInt("ADVERSARY_NUM", &s.Env.AdversaryNum),
		src.setInt("MAP_SIZE", &s.Env.MapSize),
		src.setFloat("AGENT_SPEED", &s.Env.AgentSpeed),
		src.setFloat("ADVERSARY_SPEED", &s.Env.AdversarySpeed),
		src.setInt("GRID_SCALE", &s.Env.GridScale),
		src.setFloat("MIN_CATCH_DIST", &s.Env.CatchDistance),
		src.setInt("MAX_EPISODE_STEPS", &s.Env.MaxEpisodeSteps),
		src.setInt("INIT_ADVERSARY_NUM", &s.Env.InitAdversaryNum),
		src.setInt("MAX_SPAWN_BATCH", &s.Env.MaxSpawnBatch),
		src.setUint("SEED", &s.Seed),
	} {
		if set != nil {
			return s, set
		}
	}
	src.setString("STORE", &s.StoreKind)
	src.setString("STORE_DSN", &s.StoreDSN)
	src.setString("LISTEN", &s.ListenAddr)
	return s, nil
}
