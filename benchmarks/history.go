package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/pursuit-rl/store"
)

var historyLimit int

// History prints the last recorded episodes of a run as JSON lines
func History(ctx context.Context, runID string) error {
	st, err := store.NewStore(ctx, settings.StoreKind, settings.StoreDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.ListEpisodes(ctx, runID, historyLimit)
	if err != nil {
		return err
	}
	for _, r := range records {
		bs, err := json.Marshal(r)
		if err != nil {
			return err
		}
		fmt.Println(string(bs))
	}
	return nil
}

func HistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history RUN_ID",
		Short: "Print the recorded episodes of a training run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return History(cmd.Context(), args[0])
		},
	}
	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of episodes to print, 0 prints all")
	return cmd
}
