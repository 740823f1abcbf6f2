package port

import "rageval/internal/domain"

// RunStore allocates immutable, timestamp-identified runs and persists one
// record per stage under each run. Records are never mutated after being
// written and runs are never mutated after being finalized.
type RunStore interface {
	// Begin allocates a new run. Fails with ErrRunCollision if a run with
	// the same identifier already exists.
	Begin() (*domain.Run, error)

	// Write persists one stage's record under the run. Fails with
	// ErrRunClosed on a finalized run and with ErrRunCollision when the
	// stage has already been written.
	Write(run *domain.Run, stage string, record any) error

	// Read unmarshals a previously written stage record into out. Fails
	// with ErrNotFound when the run or stage does not exist.
	Read(runID, stage string, out any) error

	// SetMode records the ground-truth mode in the run's manifest.
	SetMode(run *domain.Run, mode domain.GroundTruthMode) error

	// Finalize closes the run. Subsequent writes fail with ErrRunClosed.
	Finalize(run *domain.Run) error

	// Open loads an existing, possibly still open, run by identifier.
	Open(runID string) (*domain.Run, error)

	// List returns all runs ordered oldest first.
	List() ([]domain.Run, error)

	// Latest returns the newest run that has all the given stages written.
	Latest(stages ...string) (*domain.Run, error)
}
