package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/envlane/envlane/pkg/environment"
	"github.com/envlane/envlane/pkg/stores"
)

// Purge removes every local trace of an environment: its build directory,
// its data directory and the snapshot itself. It never touches
// infrastructure, so it only accepts environments in the terminal phase.
// A snapshot that no longer decodes is purged anyway; cleaning up damaged
// state is what purge is for. Purge is idempotent against directories that
// are already gone.
func (s *Service) Purge(ctx context.Context, name environment.Name) error {
	log := s.log.WithEnvironment(name.String())

	state, err := s.deps.Repo.Load(ctx, name)
	switch {
	case err == nil:
		if !state.IsTerminal() {
			return phaseError(state, "purge", "destroyed").
				WithHint("run 'envlane destroy' first, purge only removes local data")
		}
	case errors.Is(err, stores.ErrNotFound):
		return NewNotFoundError(
			fmt.Sprintf("environment %q does not exist", name), err).
			WithEnvironment(name.String()).
			WithOperation("purge")
	default:
		var corrupt *stores.CorruptSnapshotError
		if !errors.As(err, &corrupt) {
			return s.persistenceError(err, name, "purge")
		}
		log.WithError(err).Warn("snapshot is corrupt, purging it anyway")
	}

	dirs := []string{
		environment.BuildDir(s.deps.WorkspaceRoot, name),
		environment.DataDir(s.deps.WorkspaceRoot, name),
	}
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			return NewPersistenceError("failed to remove environment directory", err).
				WithEnvironment(name.String()).
				WithOperation("purge").
				WithHint(fmt.Sprintf("remove %s manually and retry", dir))
		}
	}

	if err := s.deps.Repo.Delete(ctx, name); err != nil {
		return NewPersistenceError("failed to delete environment snapshot", err).
			WithEnvironment(name.String()).
			WithOperation("purge")
	}

	log.Info("environment purged")
	return nil
}
