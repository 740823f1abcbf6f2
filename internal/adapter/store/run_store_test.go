package store

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"rageval/internal/domain"
)

func TestRunStoreWriteReadRoundtrip(t *testing.T) {
	rs := NewFSRunStore(t.TempDir())

	run, err := rs.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	record := domain.RetrievalResults{
		TopK: 3,
		Queries: map[string]domain.QueryRetrieval{
			"q1": {
				Query: domain.Query{ID: "q1", Text: "roundtrip"},
				Results: []domain.ScoredResult{
					{ChunkID: "a", Score: 0.8, Rank: 0},
				},
			},
		},
	}
	if err := rs.Write(run, domain.StageRetrieval, record); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var loaded domain.RetrievalResults
	if err := rs.Read(run.ID, domain.StageRetrieval, &loaded); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(record, loaded) {
		t.Errorf("roundtrip mismatch:\n wrote %+v\n read  %+v", record, loaded)
	}
}

func TestRunStoreCollision(t *testing.T) {
	rs := NewFSRunStore(t.TempDir())
	fixed := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	rs.now = func() time.Time { return fixed }

	if _, err := rs.Begin(); err != nil {
		t.Fatalf("first Begin() error = %v", err)
	}
	if _, err := rs.Begin(); !errors.Is(err, domain.ErrRunCollision) {
		t.Errorf("second Begin() error = %v, want ErrRunCollision", err)
	}
}

func TestRunStoreStageWrittenOnce(t *testing.T) {
	rs := NewFSRunStore(t.TempDir())
	run, err := rs.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if err := rs.Write(run, domain.StageMetrics, map[string]int{"v": 1}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	err = rs.Write(run, domain.StageMetrics, map[string]int{"v": 2})
	if !errors.Is(err, domain.ErrRunCollision) {
		t.Errorf("second Write() error = %v, want ErrRunCollision", err)
	}

	// The original record must be untouched.
	var got map[string]int
	if err := rs.Read(run.ID, domain.StageMetrics, &got); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got["v"] != 1 {
		t.Errorf("record = %v, want the first write preserved", got)
	}
}

func TestRunStoreFinalize(t *testing.T) {
	rs := NewFSRunStore(t.TempDir())
	run, err := rs.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if err := rs.Finalize(run); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if err := rs.Write(run, domain.StageMetrics, map[string]int{}); !errors.Is(err, domain.ErrRunClosed) {
		t.Errorf("Write() after finalize error = %v, want ErrRunClosed", err)
	}
	if err := rs.SetMode(run, domain.ModeHuman); !errors.Is(err, domain.ErrRunClosed) {
		t.Errorf("SetMode() after finalize error = %v, want ErrRunClosed", err)
	}
	if err := rs.Finalize(run); !errors.Is(err, domain.ErrRunClosed) {
		t.Errorf("double Finalize() error = %v, want ErrRunClosed", err)
	}

	reopened, err := rs.Open(run.ID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !reopened.Finalized {
		t.Error("Finalized flag not persisted in the manifest")
	}
}

func TestRunStoreNotFound(t *testing.T) {
	rs := NewFSRunStore(t.TempDir())

	if _, err := rs.Open("run_missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Open() error = %v, want ErrNotFound", err)
	}

	run, err := rs.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	var out map[string]int
	if err := rs.Read(run.ID, domain.StageMetrics, &out); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Read() of unwritten stage error = %v, want ErrNotFound", err)
	}
}

func TestRunStoreSetMode(t *testing.T) {
	rs := NewFSRunStore(t.TempDir())
	run, err := rs.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if err := rs.SetMode(run, domain.ModePseudo); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}

	reopened, err := rs.Open(run.ID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if reopened.GroundTruthMode != domain.ModePseudo {
		t.Errorf("GroundTruthMode = %q, want %q", reopened.GroundTruthMode, domain.ModePseudo)
	}
}

func TestRunStoreListAndLatest(t *testing.T) {
	rs := NewFSRunStore(t.TempDir())
	clock := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	rs.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	first, err := rs.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	second, err := rs.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	runs, err := rs.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 2 || runs[0].ID != first.ID || runs[1].ID != second.ID {
		t.Errorf("List() = %v, want [%s, %s] oldest first", runs, first.ID, second.ID)
	}

	// Only the first run carries retrieval results; Latest must skip the
	// newer but incomplete run.
	if err := rs.Write(first, domain.StageRetrieval, map[string]int{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	latest, err := rs.Latest(domain.StageRetrieval)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != first.ID {
		t.Errorf("Latest() = %s, want %s", latest.ID, first.ID)
	}

	if _, err := rs.Latest(domain.StageRetrieval, domain.StageMetrics); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Latest() with missing stage error = %v, want ErrNotFound", err)
	}
}

func TestRunStoreStages(t *testing.T) {
	rs := NewFSRunStore(t.TempDir())
	run, err := rs.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if err := rs.Write(run, domain.StageRetrieval, map[string]int{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := rs.Write(run, domain.StageGroundTruth, map[string]int{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	stages, err := rs.Stages(run.ID)
	if err != nil {
		t.Fatalf("Stages() error = %v", err)
	}
	want := []string{domain.StageGroundTruth, domain.StageRetrieval}
	if !reflect.DeepEqual(stages, want) {
		t.Errorf("Stages() = %v, want %v", stages, want)
	}
}
