package benchmarks

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zeu5/pursuit-rl/server"
	"github.com/zeu5/pursuit-rl/store"
)

var listenAddr string

// Serve exposes environments over HTTP until interrupted
func Serve(ctx context.Context) error {
	st, err := store.NewStore(ctx, settings.StoreKind, settings.StoreDSN)
	if err != nil {
		return errors.Wrap(err, "opening episode store")
	}
	defer st.Close()

	s := server.NewServer(settings.ListenAddr, server.WithSeed(settings.Seed), server.WithStore(st))
	log.Printf("Serving environments on %s", s.Addr)
	return s.Run(ctx)
}

func ServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve environments over HTTP with a websocket viewer stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				settings.ListenAddr = listenAddr
			}
			return withInterrupt(Serve)
		},
	}
	cmd.Flags().StringVarP(&listenAddr, "listen", "l", "127.0.0.1:8080", "Address to listen on")
	return cmd
}
