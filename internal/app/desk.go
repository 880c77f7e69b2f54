package app

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/samvad-hq/samvad-news-desk/internal/config"
	"github.com/samvad-hq/samvad-news-desk/internal/httpserver"
	"github.com/samvad-hq/samvad-news-desk/internal/logger"
	"github.com/samvad-hq/samvad-news-desk/internal/proxy"
	"github.com/samvad-hq/samvad-news-desk/pkg/httpclient"
	"github.com/samvad-hq/samvad-news-desk/pkg/publishers"
)

// Desk is the proxy server runtime. It relays generation requests to the agent and
// announces generated articles to any configured publishers.
type Desk struct {
	cfg    *config.Config
	echo   *echo.Echo
	fanout *publishers.Fanout
	log    logger.Logger
}

// NewDesk builds the desk runtime from config.
func NewDesk(ctx context.Context, cfg *config.Config, log logger.Logger) (*Desk, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if err := cfg.ValidateDesk(); err != nil {
		return nil, err
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	fanout, err := loadFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	relay, err := proxy.NewRelay(httpclient.NewRestyClient(cfg.AgentTimeout), cfg.AgentURL, log)
	if err != nil {
		return nil, fmt.Errorf("init relay: %w", err)
	}
	log.InfoObj("agent relay configured", "relay_config", map[string]any{
		"agent_url":       cfg.AgentURL,
		"timeout_seconds": int(cfg.AgentTimeout.Seconds()),
	})

	e := httpserver.New(log)
	proxy.NewHandler(relay, fanout, log).Register(e)
	e.GET("/health", proxy.HealthHandler)

	return &Desk{cfg: cfg, echo: e, fanout: fanout, log: log}, nil
}

// Handler exposes the configured router, mainly for tests.
func (d *Desk) Handler() *echo.Echo { return d.echo }

// Run serves HTTP until the context is cancelled.
func (d *Desk) Run(ctx context.Context) error {
	if d == nil || d.echo == nil {
		return fmt.Errorf("desk is not initialized")
	}
	defer d.closeFanout()

	d.log.InfoObj("desk starting", "desk_state", map[string]any{
		"addr":             d.cfg.HTTPAddr,
		"publishers_count": d.fanout.Size(),
	})
	return httpserver.Run(ctx, d.echo, d.cfg.HTTPAddr, d.log)
}

// loadFanout builds publishers from file. An empty path means no announcements.
func loadFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		log.InfoObj("no publishers file configured; announcements disabled", "publishers_file", path)
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

func (d *Desk) closeFanout() {
	if err := d.fanout.Close(); err != nil {
		d.log.ErrorObj("publisher close failed", "error", err.Error())
	}
}
