package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/screener/internal/mockapi"
	"github.com/urfave/cli/v3"
)

// MockServe runs an in-process mock review backend for local development.
func (r *Runner) MockServe(ctx context.Context, cmd *cli.Command) error {
	port := cmd.Int("port")
	seed := cmd.Int("seed")
	flags := cmd.StringSlice("flag")

	store := mockapi.NewStore()
	store.Seed(int(seed))

	enabled := map[string]bool{}
	for _, flag := range flags {
		enabled[flag] = true
	}
	if len(enabled) > 0 {
		store.SetFlags(enabled)
	}

	handler := mockapi.NewServer(store, r.logger)
	addr := fmt.Sprintf(":%d", port)

	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	r.logger.Info("mock review backend listening", "addr", addr, "assets", seed, "flags", flags)
	r.writePlain("point the client at it with: screener session backend http://localhost:%d\n", port)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
