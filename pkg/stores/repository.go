package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/envlane/envlane/pkg/environment"
)

// ErrNotFound is returned when no snapshot exists for the requested environment.
var ErrNotFound = errors.New("environment not found")

// CorruptSnapshotError reports a snapshot that exists but cannot be decoded.
// It is distinct from ErrNotFound so callers can tell "never created" apart
// from "created but damaged".
type CorruptSnapshotError struct {
	Name string
	Path string
	Err  error
}

func (e *CorruptSnapshotError) Error() string {
	return fmt.Sprintf("corrupt snapshot for environment %q at %s: %v", e.Name, e.Path, e.Err)
}

func (e *CorruptSnapshotError) Unwrap() error { return e.Err }

// ListEntry is one environment found by List. Entries with a damaged
// snapshot carry the decode error instead of being silently dropped.
type ListEntry struct {
	Name  environment.Name
	State environment.ErasedState
	Err   error
}

// Repository is the persistence port consumed by the workflow handlers.
// Save must be atomic: after a crash the previous snapshot is either fully
// intact or fully replaced, never half-written.
type Repository interface {
	Save(ctx context.Context, state environment.ErasedState) error
	Load(ctx context.Context, name environment.Name) (environment.ErasedState, error)
	List(ctx context.Context) ([]ListEntry, error)
	Delete(ctx context.Context, name environment.Name) error
}

// LoadAs loads the snapshot for name and restores it into the requested
// phase. A snapshot in any other phase fails with the restore mismatch
// error naming both phases.
func LoadAs[S environment.Marker](ctx context.Context, repo Repository, name environment.Name) (environment.Environment[S], error) {
	state, err := repo.Load(ctx, name)
	if err != nil {
		var zero environment.Environment[S]
		return zero, err
	}
	return environment.Restore[S](state)
}
