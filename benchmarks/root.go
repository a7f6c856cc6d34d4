package benchmarks

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/zeu5/pursuit-rl/chase"
	"github.com/zeu5/pursuit-rl/config"
	"github.com/zeu5/pursuit-rl/pursuit"
)

var (
	episodes  int
	horizon   int
	saveFile  string
	runs      int
	seed      uint64
	hashScale int
	envFile   string

	cpuprofile string
	memprofile string

	// resolved before every subcommand runs
	settings config.Settings

	flagEnv      = chase.DefaultConfig()
	flagStore    string
	flagStoreDSN string
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "pursuit",
		Short:         "Police and thieves pursuit environment with tabular RL experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadSettings(cmd)
		},
	}
	flags := rootCommand.PersistentFlags()
	flags.IntVarP(&episodes, "episodes", "e", 1000, "Number of episodes to run")
	flags.IntVar(&horizon, "horizon", 0, "Horizon of each episode, 0 stops at the environment step limit")
	flags.StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	flags.IntVar(&runs, "runs", 1, "Number of experiment runs")
	flags.Uint64Var(&seed, "seed", 0, "Seed of the environments and policies")
	flags.IntVar(&hashScale, "hash-scale", 1, "Hash cells per map unit when abstracting states")
	flags.StringVar(&envFile, "env-file", "", "Read PURSUIT_* settings from this file instead of .env")
	flags.StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile to this file")
	flags.StringVar(&memprofile, "memprofile", "", "Write a heap profile to this file")

	flags.IntVar(&flagEnv.AgentNum, "agents", flagEnv.AgentNum, "Number of controlled agents")
	flags.StringVar((*string)(&flagEnv.AgentTeam), "team", string(flagEnv.AgentTeam), "Team of the controlled agents (police or thief)")
	flags.IntVar(&flagEnv.AdversaryNum, "adversaries", flagEnv.AdversaryNum, "Number of adversaries")
	flags.IntVar(&flagEnv.MapSize, "map-size", flagEnv.MapSize, "Side of the square map")
	flags.StringVar((*string)(&flagEnv.AdversaryMode), "adversary-action", string(flagEnv.AdversaryMode), "Adversary behaviour (static, simple or random)")
	flags.StringVar((*string)(&flagEnv.ObservationFormat), "state-format", string(flagEnv.ObservationFormat), "Observation format")
	flags.StringVar((*string)(&flagEnv.ActionEncoding), "action-type", string(flagEnv.ActionEncoding), "Action encoding")
	flags.Float64Var(&flagEnv.AgentSpeed, "agent-speed", flagEnv.AgentSpeed, "Distance an agent covers per step")
	flags.Float64Var(&flagEnv.AdversarySpeed, "adversary-speed", flagEnv.AdversarySpeed, "Distance an adversary covers per step")
	flags.IntVar(&flagEnv.GridScale, "grid-scale", flagEnv.GridScale, "Grid cells per map unit of grid observations")
	flags.Float64Var(&flagEnv.CatchDistance, "catch-dist", flagEnv.CatchDistance, "Manhattan distance at which a capture happens")
	flags.IntVar(&flagEnv.MaxEpisodeSteps, "max-steps", flagEnv.MaxEpisodeSteps, "Step limit of an episode")
	flags.StringVar((*string)(&flagEnv.SpawnPolicy), "spawn", string(flagEnv.SpawnPolicy), "Spawn policy (fixed or incremental_random)")
	flags.IntVar(&flagEnv.InitAdversaryNum, "init-adversaries", flagEnv.InitAdversaryNum, "Adversaries at reset with incremental spawning")
	flags.IntVar(&flagEnv.MaxSpawnBatch, "max-spawn-batch", flagEnv.MaxSpawnBatch, "Upper bound of an incremental spawn batch")
	flags.StringVar(&flagStore, "store", "", "Episode store backend (memory, sqlite or redis)")
	flags.StringVar(&flagStoreDSN, "store-dsn", "", "Database path or redis address of the episode store")

	// adding the subcommands here
	rootCommand.AddCommand(TrainCommand())
	rootCommand.AddCommand(CompareCommand())
	rootCommand.AddCommand(PlayCommand())
	rootCommand.AddCommand(ServeCommand())
	rootCommand.AddCommand(HistoryCommand())
	return rootCommand
}

// loadSettings layers the flags that were set over the environment settings
func loadSettings(cmd *cobra.Command) error {
	s, err := config.Read(envFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()

	overrides := map[string]func(){
		"agents":           func() { s.Env.AgentNum = flagEnv.AgentNum },
		"team":             func() { s.Env.AgentTeam = flagEnv.AgentTeam },
		"adversaries":      func() { s.Env.AdversaryNum = flagEnv.AdversaryNum },
		"map-size":         func() { s.Env.MapSize = flagEnv.MapSize },
		"adversary-action": func() { s.Env.AdversaryMode = flagEnv.AdversaryMode },
		"state-format":     func() { s.Env.ObservationFormat = flagEnv.ObservationFormat },
		"action-type":      func() { s.Env.ActionEncoding = flagEnv.ActionEncoding },
		"agent-speed":      func() { s.Env.AgentSpeed = flagEnv.AgentSpeed },
		"adversary-speed":  func() { s.Env.AdversarySpeed = flagEnv.AdversarySpeed },
		"grid-scale":       func() { s.Env.GridScale = flagEnv.GridScale },
		"catch-dist":       func() { s.Env.CatchDistance = flagEnv.CatchDistance },
		"max-steps":        func() { s.Env.MaxEpisodeSteps = flagEnv.MaxEpisodeSteps },
		"spawn":            func() { s.Env.SpawnPolicy = flagEnv.SpawnPolicy },
		"init-adversaries": func() { s.Env.InitAdversaryNum = flagEnv.InitAdversaryNum },
		"max-spawn-batch":  func() { s.Env.MaxSpawnBatch = flagEnv.MaxSpawnBatch },
		"store":            func() { s.StoreKind = flagStore },
		"store-dsn":        func() { s.StoreDSN = flagStoreDSN },
		"seed":             func() { s.Seed = seed },
	}
	for name, apply := range overrides {
		if flags.Changed(name) {
			apply()
		}
	}
	if err := s.Env.Validate(); err != nil {
		return err
	}
	settings = s
	return nil
}

// newEnvironment builds a pursuit environment from the resolved settings
func newEnvironment(envSeed uint64, opts ...pursuit.Option) (*pursuit.Environment, error) {
	env, err := chase.NewEnvironment(settings.Env, chase.WithSeed(envSeed))
	if err != nil {
		return nil, err
	}
	return pursuit.NewEnvironment(env, hashScale, opts...)
}

// withInterrupt cancels the context passed to run on the first interrupt
func withInterrupt(run func(context.Context) error) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	doneCh := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		cancel()
	}()

	err := run(ctx)
	close(doneCh)
	return err
}
