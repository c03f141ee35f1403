// Command web serves the user table as a server-rendered page, one live table per
// browser session.
package main

import (
	"context"
	"log"

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

	c, err := newContainer(ctx, cfg, l)
	if err != nil {
		return err
	}
	go c.Sessions.RunJanitor(ctx, janitorInterval, c.idle)

	srv := server.New("web", ":"+cfg.App.WebPort, c.Router, l)
	return app.New(cfg, l, srv, c.Close).Run(ctx)
}
