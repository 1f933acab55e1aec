package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/envlane/envlane/pkg/environment"
	"github.com/envlane/envlane/pkg/stores"
	"github.com/envlane/envlane/pkg/telemetry"
)

// Deps are the collaborators a Service needs. Repo, Provisioner, Playbooks,
// Compose, Renderer and Transport are required; the rest default sensibly.
type Deps struct {
	Repo        stores.Repository
	Events      RunRecorder
	Tel         *telemetry.Telemetry
	Provisioner Provisioner
	Playbooks   PlaybookRunner
	Compose     ComposeRunner
	Renderer    Renderer
	Transport   Transport
	Clock       Clock

	// WorkspaceRoot is the base directory for per-environment build and
	// data directories.
	WorkspaceRoot string

	// TemplatesDir holds the infra and app template trees.
	TemplatesDir string

	// SSHWaitTimeout bounds waiting for the instance to accept SSH.
	SSHWaitTimeout time.Duration

	// CloudInitTimeout bounds waiting for cloud-init to finish.
	CloudInitTimeout time.Duration
}

// Service exposes the environment lifecycle operations to the CLI.
type Service struct {
	deps Deps
	tel  *telemetry.Telemetry
	log  *telemetry.Logger
}

// NewService validates the dependencies and builds a Service.
func NewService(deps Deps) (*Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if deps.Provisioner == nil {
		return nil, fmt.Errorf("provisioner is required")
	}
	if deps.Playbooks == nil {
		return nil, fmt.Errorf("playbook runner is required")
	}
	if deps.Compose == nil {
		return nil, fmt.Errorf("compose runner is required")
	}
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if deps.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if deps.WorkspaceRoot == "" {
		return nil, fmt.Errorf("workspace root is required")
	}
	if deps.Events == nil {
		deps.Events = NopRecorder{}
	}
	if deps.Tel == nil {
		deps.Tel = telemetry.Disabled()
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.SSHWaitTimeout == 0 {
		deps.SSHWaitTimeout = 5 * time.Minute
	}
	if deps.CloudInitTimeout == 0 {
		deps.CloudInitTimeout = 10 * time.Minute
	}

	return &Service{
		deps: deps,
		tel:  deps.Tel,
		log:  deps.Tel.Logger.NewComponentLogger("engine"),
	}, nil
}

// CreateParams describe a new environment.
type CreateParams struct {
	Name     string
	Provider environment.ProviderConfig
	SSH      environment.SSHCredentials
	Features environment.Features
}

// Create registers a new environment in the Created phase. Creating a name
// that already has a snapshot is rejected.
func (s *Service) Create(ctx context.Context, params CreateParams) (environment.ErasedState, error) {
	name, err := environment.NewName(params.Name)
	if err != nil {
		return environment.ErasedState{}, NewValidationError("invalid environment name", err).
			WithOperation("create").
			WithHint("names are lowercase alphanumerics and hyphens, at most 63 characters")
	}

	if _, err := s.deps.Repo.Load(ctx, name); err == nil {
		return environment.ErasedState{}, NewValidationError(
			fmt.Sprintf("environment %q already exists", name), nil).
			WithEnvironment(name.String()).
			WithOperation("create").
			WithHint("pick a different name or destroy the existing environment first")
	} else if !errors.Is(err, stores.ErrNotFound) {
		return environment.ErasedState{}, s.persistenceError(err, name, "create")
	}

	env, err := environment.New(name, params.Provider, params.SSH, params.Features, s.deps.Clock.Now())
	if err != nil {
		return environment.ErasedState{}, NewValidationError("invalid environment definition", err).
			WithEnvironment(name.String()).
			WithOperation("create")
	}

	state := environment.Erase(env)
	if err := s.save(ctx, state, "create"); err != nil {
		return environment.ErasedState{}, err
	}
	s.log.WithEnvironment(name.String()).Info("environment created")
	return state, nil
}

// Show returns the current snapshot of the named environment.
func (s *Service) Show(ctx context.Context, name environment.Name) (environment.ErasedState, error) {
	return s.loadState(ctx, name, "show")
}

// List returns all known environments in name order, including entries
// whose snapshot could not be decoded.
func (s *Service) List(ctx context.Context) ([]stores.ListEntry, error) {
	entries, err := s.deps.Repo.List(ctx)
	if err != nil {
		return nil, NewPersistenceError("failed to list environments", err).WithOperation("list")
	}
	return entries, nil
}

// loadState loads a snapshot and maps store errors into the engine taxonomy.
func (s *Service) loadState(ctx context.Context, name environment.Name, op string) (environment.ErasedState, error) {
	state, err := s.deps.Repo.Load(ctx, name)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return environment.ErasedState{}, NewNotFoundError(
				fmt.Sprintf("environment %q does not exist", name), err).
				WithEnvironment(name.String()).
				WithOperation(op).
				WithHint("run 'envlane create' first")
		}
		return environment.ErasedState{}, s.persistenceError(err, name, op)
	}
	return state, nil
}

// save persists a snapshot and maps store errors into the engine taxonomy.
func (s *Service) save(ctx context.Context, state environment.ErasedState, op string) error {
	if err := s.deps.Repo.Save(ctx, state); err != nil {
		return NewPersistenceError("failed to persist environment snapshot", err).
			WithEnvironment(state.Name().String()).
			WithOperation(op).
			WithHint("check the state directory is writable and has free space")
	}
	return nil
}

func (s *Service) persistenceError(err error, name environment.Name, op string) *Error {
	var corrupt *stores.CorruptSnapshotError
	if errors.As(err, &corrupt) {
		return NewPersistenceError("environment snapshot is corrupt", err).
			WithEnvironment(name.String()).
			WithOperation(op).
			WithHint("inspect the snapshot file or restore it from a backup")
	}
	return NewPersistenceError("failed to load environment snapshot", err).
		WithEnvironment(name.String()).
		WithOperation(op)
}

// phaseError rejects an operation against an environment in the wrong phase.
func phaseError(state environment.ErasedState, op string, wantPhases string) *Error {
	return NewTypeMismatchError(
		fmt.Sprintf("environment %q is in phase %q", state.Name(), state.Phase()), nil).
		WithEnvironment(state.Name().String()).
		WithOperation(op).
		WithHint(fmt.Sprintf("%s requires phase %s", op, wantPhases))
}

// restoreError maps a phase mismatch surfacing from Restore. It indicates a
// race between load and restore rather than operator error.
func restoreError(err error, name environment.Name, op string) error {
	var mismatch *environment.PhaseMismatchError
	if errors.As(err, &mismatch) {
		return NewTypeMismatchError("environment changed phase during load", err).
			WithEnvironment(name.String()).
			WithOperation(op)
	}
	return err
}
