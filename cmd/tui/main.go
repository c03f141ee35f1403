// Command tui shows the user table in the terminal.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"user-table/internal/adapter/usersapi"
	"user-table/internal/app"
	"user-table/internal/server"
	"user-table/internal/tui"
	"user-table/internal/usertable"
)

// defaultLogFile receives the logs when the configuration points them at the terminal.
const defaultLogFile = "user-table-tui.log"

func main() {
	ctx, stop := server.WithSignal(context.Background())
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("application exited with error: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// The terminal belongs to the UI.
	if cfg.Logger.OutputPath == "" || cfg.Logger.OutputPath == "stdout" || cfg.Logger.OutputPath == "stderr" {
		cfg.Logger.OutputPath = defaultLogFile
	}
	l, err := app.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	client := usersapi.NewClient(usersapi.Config{
		BaseURL:   cfg.UsersAPI.BaseURL,
		Timeout:   time.Duration(cfg.UsersAPI.TimeoutSeconds) * time.Second,
		UserAgent: cfg.UsersAPI.UserAgent,
	}, nil, l)

	l.Info("starting terminal view", zap.String("users_api", cfg.UsersAPI.BaseURL))

	p := tea.NewProgram(tui.New(ctx, usertable.NewService(client, l)), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal view: %w", err)
	}
	return nil
}
