// Command api serves the persistent, dummyjson-compatible users backend.
package main

import (
	"context"
	"log"

	"user-table/cmd/api/di"
	"user-table/internal/app"
	"user-table/internal/server"
)

func main() {
	ctx, stop := server.WithSignal(context.Background())
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("application exited with error: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, l, err := app.Bootstrap()
	if err != nil {
		return err
	}

	container, err := di.NewContainer(ctx, cfg, l)
	if err != nil {
		return err
	}

	srv := server.New("api", ":"+cfg.App.APIPort, container.Router, l)
	return app.New(cfg, l, srv, container.Close).Run(ctx)
}
