package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"rageval/internal/domain"
)

const (
	runPrefix     = "run_"
	manifestFile  = "manifest.yaml"
	runTimeFormat = "2006-01-02_15-04-05.000"
)

// FSRunStore implements port.RunStore on the filesystem. Each run owns a
// run_<timestamp> directory with a YAML manifest and one JSON record per
// stage. Records are written once and never mutated; finalizing a run
// rejects all further writes.
type FSRunStore struct {
	dir string
	now func() time.Time
}

// NewFSRunStore creates a run store rooted at dir.
func NewFSRunStore(dir string) *FSRunStore {
	return &FSRunStore{dir: dir, now: time.Now}
}

// Begin allocates a new timestamp-identified run directory.
func (s *FSRunStore) Begin() (*domain.Run, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run root: %w", err)
	}

	created := s.now().UTC()
	id := runPrefix + created.Format(runTimeFormat)
	path := filepath.Join(s.dir, id)

	// Mkdir (not MkdirAll) so an existing directory surfaces as a
	// collision instead of being silently reused.
	if err := os.Mkdir(path, 0755); err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("run %q: %w", id, domain.ErrRunCollision)
		}
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	run := &domain.Run{
		ID:        id,
		Dir:       path,
		CreatedAt: created,
	}
	if err := s.writeManifest(run); err != nil {
		return nil, err
	}
	return run, nil
}

// Write persists one stage record under the run.
func (s *FSRunStore) Write(run *domain.Run, stage string, record any) error {
	// Re-check the manifest on disk so a finalize through another handle
	// is not missed.
	current, err := s.Open(run.ID)
	if err != nil {
		return err
	}
	if current.Finalized {
		return fmt.Errorf("run %q: %w", run.ID, domain.ErrRunClosed)
	}

	path := s.stagePath(run.ID, stage)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("stage %q already written for run %q: %w", stage, run.ID, domain.ErrRunCollision)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", stage, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s record: %w", stage, err)
	}
	return nil
}

// Read loads a previously written stage record.
func (s *FSRunStore) Read(runID, stage string, out any) error {
	data, err := os.ReadFile(s.stagePath(runID, stage))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("run %q stage %q: %w", runID, stage, domain.ErrNotFound)
		}
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s record: %w", stage, err)
	}
	return nil
}

// SetMode records the ground-truth mode in the run manifest.
func (s *FSRunStore) SetMode(run *domain.Run, mode domain.GroundTruthMode) error {
	current, err := s.Open(run.ID)
	if err != nil {
		return err
	}
	if current.Finalized {
		return fmt.Errorf("run %q: %w", run.ID, domain.ErrRunClosed)
	}

	run.GroundTruthMode = mode
	return s.writeManifest(run)
}

// Finalize closes the run; the directory is immutable afterwards.
func (s *FSRunStore) Finalize(run *domain.Run) error {
	current, err := s.Open(run.ID)
	if err != nil {
		return err
	}
	if current.Finalized {
		return fmt.Errorf("run %q: %w", run.ID, domain.ErrRunClosed)
	}

	run.Finalized = true
	return s.writeManifest(run)
}

// Open loads an existing run by identifier.
func (s *FSRunStore) Open(runID string) (*domain.Run, error) {
	path := filepath.Join(s.dir, runID)
	data, err := os.ReadFile(filepath.Join(path, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %q: %w", runID, domain.ErrNotFound)
		}
		return nil, err
	}

	var run domain.Run
	if err := yaml.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run manifest: %w", err)
	}
	run.Dir = path
	return &run, nil
}

// List returns all runs, oldest first. Timestamp identifiers sort
// lexicographically.
func (s *FSRunStore) List() ([]domain.Run, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []domain.Run
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), runPrefix) {
			continue
		}
		run, err := s.Open(entry.Name())
		if err != nil {
			continue // Skip directories without a readable manifest
		}
		runs = append(runs, *run)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs, nil
}

// Latest returns the newest run that has all the given stages written.
func (s *FSRunStore) Latest(stages ...string) (*domain.Run, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}

	for i := len(runs) - 1; i >= 0; i-- {
		complete := true
		for _, stage := range stages {
			if _, err := os.Stat(s.stagePath(runs[i].ID, stage)); err != nil {
				complete = false
				break
			}
		}
		if complete {
			return &runs[i], nil
		}
	}
	return nil, fmt.Errorf("no run with stages %v: %w", stages, domain.ErrNotFound)
}

// Stages returns the stage names written under a run, sorted.
func (s *FSRunStore) Stages(runID string) ([]string, error) {
	if _, err := s.Open(runID); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.dir, runID))
	if err != nil {
		return nil, err
	}

	var stages []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		stages = append(stages, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(stages)
	return stages, nil
}

func (s *FSRunStore) stagePath(runID, stage string) string {
	return filepath.Join(s.dir, runID, stage+".json")
}

func (s *FSRunStore) writeManifest(run *domain.Run) error {
	data, err := yaml.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(run.Dir, manifestFile), data, 0644)
}
