package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samvad-hq/samvad-news-desk/internal/config"
	"github.com/samvad-hq/samvad-news-desk/internal/desk"
	"github.com/samvad-hq/samvad-news-desk/internal/logger"
	"github.com/samvad-hq/samvad-news-desk/internal/tui"
	"github.com/samvad-hq/samvad-news-desk/pkg/httpclient"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "admin failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateAdmin(); err != nil {
		return err
	}

	// The TUI owns stdout, so logs go to a file.
	logPath := filepath.Join(os.TempDir(), "samvad-admin.log")
	log, err := logger.InitFile(cfg, logPath)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("admin starting", "admin_config", map[string]any{
		"desk_url":        cfg.DeskURL,
		"timeout_seconds": int(cfg.DeskTimeout.Seconds()),
		"log_file":        logPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	session, err := desk.NewSession(httpclient.NewRestyClient(cfg.DeskTimeout), cfg.DeskURL, log)
	if err != nil {
		return fmt.Errorf("init session: %w", err)
	}

	p := tea.NewProgram(tui.New(ctx, session, tui.Options{}), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("admin ui: %w", err)
	}
	return nil
}
