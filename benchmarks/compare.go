package benchmarks

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zeu5/pursuit-rl/policies"
	"github.com/zeu5/pursuit-rl/pursuit"
	"github.com/zeu5/pursuit-rl/types"
)

// Compare runs the random, learning and chasing policies on identically
// seeded environments
func Compare(ctx context.Context) error {
	c, err := types.NewComparison(&types.ComparisonConfig{
		Runs:         runs,
		Episodes:     episodes,
		Horizon:      horizon,
		RecordPath:   saveFile,
		RecordTraces: false,
		RecordPolicy: false,
	})
	if err != nil {
		return err
	}
	c.AddAnalysis("reward", pursuit.EpisodeRewardAnalyzer(), pursuit.SeriesComparator(saveFile, "reward"))
	c.AddAnalysis("length", pursuit.EpisodeLengthAnalyzer(), pursuit.SeriesComparator(saveFile, "length"))
	c.AddAnalysis("captures", pursuit.CaptureAnalyzer(), pursuit.SeriesComparator(saveFile, "captures"))
	c.AddAnalysis("success", pursuit.SuccessAnalyzer(), pursuit.SeriesComparator(saveFile, "success"))
	c.AddAnalysis("coverage", types.PureCoverage(), types.PureCoveragePlotter(saveFile))

	experiments := []struct {
		name   string
		policy types.Policy
	}{
		{"Random", types.NewRandomPolicy(settings.Seed)},
		{"QLearning", policies.NewQLearningPolicy(alpha, discount, epsilon, settings.Seed)},
		{"SoftMax", policies.NewSoftMaxPolicy(alpha, discount, temperature, settings.Seed)},
		{"Chaser", policies.NewChaserPolicy()},
	}
	for _, e := range experiments {
		env, err := newEnvironment(settings.Seed)
		if err != nil {
			return err
		}
		c.AddExperiment(types.NewExperiment(e.name, e.policy, env))
	}
	return c.Run(ctx)
}

func CompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare random, learning and chasing policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfiling(func() error {
				return withInterrupt(Compare)
			})
		},
	}
	addLearningFlags(cmd)
	return cmd
}
