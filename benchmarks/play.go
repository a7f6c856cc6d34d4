package benchmarks

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeu5/pursuit-rl/chase"
	"github.com/zeu5/pursuit-rl/policies"
	"github.com/zeu5/pursuit-rl/pursuit"
	"github.com/zeu5/pursuit-rl/types"
	"github.com/zeu5/pursuit-rl/viz"
)

var (
	playPolicy string
	frameDelay time.Duration
)

// Play draws the episodes of a fixed policy on the terminal
func Play(ctx context.Context) error {
	text := viz.NewTextRenderer(os.Stdout)
	renderer := chase.RendererFunc(func(s chase.Snapshot) {
		text.Render(s)
		time.Sleep(frameDelay)
	})
	env, err := newEnvironment(settings.Seed, pursuit.WithRenderer(renderer))
	if err != nil {
		return err
	}

	var policy types.Policy
	switch playPolicy {
	case "chaser":
		policy = policies.NewChaserPolicy()
	case "random":
		policy = types.NewRandomPolicy(settings.Seed)
	default:
		return fmt.Errorf("unknown policy %q", playPolicy)
	}

	agent := types.NewAgent(&types.AgentConfig{
		Episodes:    episodes,
		Horizon:     horizon,
		Policy:      policy,
		Environment: env,
	})
	if err := agent.Run(ctx); err != nil {
		return err
	}
	for i, trace := range agent.Traces() {
		fmt.Printf("episode %d: return %.1f, captures %d\n", i, trace.TotalReward(), pursuit.Captures(trace))
	}
	return nil
}

func PlayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Render episodes of the chaser or random policy on the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("episodes") {
				episodes = 1
			}
			return withInterrupt(Play)
		},
	}
	cmd.Flags().StringVarP(&playPolicy, "policy", "p", "chaser", "Policy to play (chaser or random)")
	cmd.Flags().DurationVar(&frameDelay, "delay", 200*time.Millisecond, "Pause after every frame")
	return cmd
}
