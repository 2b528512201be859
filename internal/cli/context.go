package cli

import (
	"os"
	"path/filepath"

	"github.com/grantoftegaard/garden/internal/audit"
	"github.com/grantoftegaard/garden/internal/garden"
	"github.com/grantoftegaard/garden/internal/render"
	"github.com/grantoftegaard/garden/internal/store"
	"github.com/grantoftegaard/garden/pkg/config"
	"github.com/grantoftegaard/garden/pkg/logging"
	"github.com/grantoftegaard/garden/pkg/metrics"
)

// app is everything a command needs, built from the configuration file.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	store   *store.Store
	journal *audit.FileAppender
	metrics *metrics.Registry
	svc     *garden.Service
}

// loadApp reads the configuration and wires the service. The preview
// renderer is only built when withRenderer is set, since it has to load the
// background image.
func loadApp(withRenderer bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.Configure(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		store:   store.New(cfg.DataDir, store.WithLogger(log)),
		journal: audit.NewFileAppender(cfg.AuditLog),
		metrics: metrics.Default(),
	}

	opts := []garden.Option{
		garden.WithJournal(a.journal),
		garden.WithMetrics(a.metrics),
		garden.WithLogger(log),
		garden.WithDefaults(cfg.Defaults),
	}
	if withRenderer {
		r, err := render.New(cfg.BackgroundImage, cfg.OutputImage, cfg.Canvas.Width, cfg.Canvas.Height,
			render.WithLogger(log), render.WithMetrics(a.metrics))
		if err != nil {
			return nil, err
		}
		opts = append(opts, garden.WithRenderer(r))
	}
	a.svc = garden.New(a.store, opts...)
	return a, nil
}

// imageDir is where the preview is written; doctor sweeps it for temp files.
func (a *app) imageDir() string {
	return filepath.Dir(a.cfg.OutputImage)
}
