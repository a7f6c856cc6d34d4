package benchmarks

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zeu5/pursuit-rl/policies"
	"github.com/zeu5/pursuit-rl/pursuit"
	"github.com/zeu5/pursuit-rl/store"
	"github.com/zeu5/pursuit-rl/types"
)

var (
	alpha       float64
	discount    float64
	epsilon     float64
	temperature float64
	trainPolicy string
)

// newLearner returns the learning policy named by name
func newLearner(name string, policySeed uint64) (types.Policy, error) {
	switch name {
	case "qlearning":
		return policies.NewQLearningPolicy(alpha, discount, epsilon, policySeed), nil
	case "softmax":
		return policies.NewSoftMaxPolicy(alpha, discount, temperature, policySeed), nil
	default:
		return nil, fmt.Errorf("unknown learning policy %q", name)
	}
}

// Train runs a single learning experiment and saves a summary of every
// episode to the configured episode store
func Train(ctx context.Context) error {
	st, err := store.NewStore(ctx, settings.StoreKind, settings.StoreDSN)
	if err != nil {
		return errors.Wrap(err, "opening episode store")
	}
	defer st.Close()

	env, err := newEnvironment(settings.Seed)
	if err != nil {
		return err
	}
	policy, err := newLearner(trainPolicy, settings.Seed)
	if err != nil {
		return err
	}

	c, err := types.NewComparison(&types.ComparisonConfig{
		Runs:         runs,
		Episodes:     episodes,
		Horizon:      horizon,
		RecordPath:   saveFile,
		RecordTraces: false,
		RecordPolicy: true,
	})
	if err != nil {
		return err
	}

	runID := store.NewRunID()
	recorder := pursuit.NewStoreRecorder(st, runID)
	c.AddAnalysis("reward", pursuit.EpisodeRewardAnalyzer(), pursuit.SeriesComparator(saveFile, "reward"))
	c.AddAnalysis("success", pursuit.SuccessAnalyzer(), pursuit.SeriesComparator(saveFile, "success"))
	c.AddAnalysis("store", recorder, types.NoopComparator())
	c.AddExperiment(types.NewExperiment(trainPolicy, policy, env))

	if err := c.Run(ctx); err != nil {
		return err
	}
	if err := recorder.Err(); err != nil {
		return errors.Wrap(err, "saving episodes")
	}

	last, err := st.ListEpisodes(ctx, runID, 1)
	if err != nil {
		return err
	}
	fmt.Printf("Run ID: %s\n", runID)
	if len(last) == 1 {
		fmt.Printf("Last episode: return %.1f, steps %d, average of last 10 %.2f\n",
			last[0].TotalReward, last[0].Steps, last[0].AverageLast10)
	}
	return nil
}

func TrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a tabular policy and record the episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfiling(func() error {
				return withInterrupt(Train)
			})
		},
	}
	cmd.Flags().StringVarP(&trainPolicy, "policy", "p", "qlearning", "Learning policy (qlearning or softmax)")
	addLearningFlags(cmd)
	return cmd
}

func addLearningFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&alpha, "alpha", 0.1, "Learning rate")
	cmd.Flags().Float64Var(&discount, "gamma", 0.95, "Discount factor")
	cmd.Flags().Float64Var(&epsilon, "epsilon", 0.1, "Exploration rate of the greedy policy")
	cmd.Flags().Float64Var(&temperature, "temperature", 1, "Temperature of the softmax policy")
}
