package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/envlane/envlane/pkg/engine"
	"github.com/envlane/envlane/pkg/stores"
	"github.com/envlane/envlane/pkg/telemetry"
	"github.com/envlane/envlane/pkg/tools"
	sshtransport "github.com/envlane/envlane/pkg/transports/ssh"
)

// app wires the engine service with its real collaborators for one command
// invocation.
type app struct {
	svc    *engine.Service
	tel    *telemetry.Telemetry
	events *stores.EventStore
}

// newApp builds the service from the global flags. The caller must invoke
// close when done.
func newApp(ctx context.Context) (*app, error) {
	cfg := telemetry.DefaultConfig()
	cfg.Logging.Level = logLevel
	cfg.Logging.Format = logFormat

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	log := tel.Logger

	repo, err := stores.NewFileStore(filepath.Join(workspaceDir, "state"))
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	events, err := stores.NewEventStore(stores.EventStoreConfig{
		Path: filepath.Join(workspaceDir, "events.db"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}
	if err := events.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize event store: %w", err)
	}
	if err := events.Migrate(ctx); err != nil {
		_ = events.Close()
		return nil, fmt.Errorf("failed to migrate event store: %w", err)
	}

	transport := sshtransport.NewClient(sshtransport.DefaultConfig(), log)

	templates := templatesDir
	if templates == "" {
		templates = filepath.Join(workspaceDir, "templates")
	}
	playbooks := playbooksDir
	if playbooks == "" {
		playbooks = filepath.Join(workspaceDir, "playbooks")
	}

	svc, err := engine.NewService(engine.Deps{
		Repo:          repo,
		Events:        &engine.EventStoreRecorder{Store: events},
		Tel:           tel,
		Provisioner:   tools.NewOpenTofu(tofuBinary, log),
		Playbooks:     tools.NewAnsible(playbooks, log),
		Compose:       tools.NewCompose(transport, log),
		Renderer:      tools.NewTemplateDir(log),
		Transport:     transport,
		WorkspaceRoot: workspaceDir,
		TemplatesDir:  templates,
	})
	if err != nil {
		_ = events.Close()
		return nil, err
	}

	return &app{svc: svc, tel: tel, events: events}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.events.Close(); err != nil {
		a.tel.Logger.WithError(err).Warn("failed to close event store")
	}
	if err := a.tel.Shutdown(ctx); err != nil {
		a.tel.Logger.WithError(err).Warn("failed to shut down telemetry")
	}
}
