package exercise_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/exercise"
	"github.com/kitabiapp/kitabi/core/gamify"
	inmemdb "github.com/kitabiapp/kitabi/storage/database/inmem"
	testutil "github.com/kitabiapp/kitabi/tests"
)

func newTestService(t *testing.T) (*exercise.Service, *gamify.Service) {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	gamifySvc := gamify.NewService(inmemdb.NewGamifyRepository(db), testutil.NopLogger{})
	svc := exercise.NewService(nil, inmemdb.NewExerciseRepository(db), gamifySvc, testutil.NopLogger{})
	return svc, gamifySvc
}

func TestServiceRecordCompletionOnce(t *testing.T) {
	ctx := context.Background()
	svc, gamifySvc := newTestService(t)

	completion := exercise.Completion{
		ExerciseID:   "mcq-1",
		ExerciseType: exercise.TypeMultipleChoice,
		IsCorrect:    true,
		PointsEarned: 10,
		UserAnswer:   "b",
	}

	recorded, err := svc.RecordCompletion(ctx, "u1", completion)
	if err != nil {
		t.Fatalf("RecordCompletion() failed: %v", err)
	}
	if !recorded {
		t.Fatalf("RecordCompletion() = false on the first submission, want true")
	}

	agg, err := gamifySvc.ForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ForUser() failed: %v", err)
	}
	if agg.TotalPoints != 10 || agg.ExercisesCompleted != 1 {
		t.Errorf("aggregate = %+v, want 10 points / 1 exercise", agg)
	}

	// a resubmission is not an error and credits nothing
	if recorded, err = svc.RecordCompletion(ctx, "u1", completion); err != nil {
		t.Fatalf("RecordCompletion() resubmission failed: %v", err)
	}
	if recorded {
		t.Errorf("RecordCompletion() = true on a resubmission, want false")
	}
	if agg, _ = gamifySvc.ForUser(ctx, "u1"); agg.TotalPoints != 10 {
		t.Errorf("resubmission changed the aggregate: %+v", agg)
	}

	// another user completing the same exercise is credited independently
	if recorded, err = svc.RecordCompletion(ctx, "u2", completion); err != nil || !recorded {
		t.Errorf("RecordCompletion() for another user = (%v, %v), want (true, nil)", recorded, err)
	}

	progs, err := svc.ForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ForUser() failed: %v", err)
	}
	if len(progs) != 1 {
		t.Errorf("ForUser() returned %d entries, want 1", len(progs))
	}
}

func TestServiceRecordCompletionConcurrent(t *testing.T) {
	ctx := context.Background()
	svc, gamifySvc := newTestService(t)

	completion := exercise.Completion{
		ExerciseID:   "tf-7",
		ExerciseType: exercise.TypeTrueFalse,
		IsCorrect:    true,
		PointsEarned: 5,
	}

	const attempts = 16
	var (
		wg       sync.WaitGroup
		recorded int64
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := svc.RecordCompletion(ctx, "u1", completion)
			if err != nil {
				t.Errorf("RecordCompletion() failed: %v", err)
			}
			if ok {
				atomic.AddInt64(&recorded, 1)
			}
		}()
	}
	wg.Wait()

	if recorded != 1 {
		t.Errorf("RecordCompletion() wrote %d ledger rows, want exactly 1", recorded)
	}
	agg, err := gamifySvc.ForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ForUser() failed: %v", err)
	}
	if agg.TotalPoints != 5 {
		t.Errorf("aggregate points = %d, want 5 (credited once)", agg.TotalPoints)
	}
}

// brokenRepo fails every write with a non-duplicate error.
type brokenRepo struct {
	exercise.Repository
}

var errDiskFull = errors.New("disk full")

func (brokenRepo) InsertProgress(context.Context, exercise.Progress, ...core.DBExecutor) (exercise.Progress, error) {
	return exercise.Progress{}, errDiskFull
}
func (brokenRepo) BumpTypeStats(context.Context, string, string, bool, time.Time, ...core.DBExecutor) error {
	return errDiskFull
}

func TestServiceRecordCompletionFailsClosed(t *testing.T) {
	ctx := context.Background()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	gamifySvc := gamify.NewService(inmemdb.NewGamifyRepository(db), testutil.NopLogger{})
	svc := exercise.NewService(nil, brokenRepo{}, gamifySvc, testutil.NopLogger{})

	recorded, err := svc.RecordCompletion(ctx, "u1", exercise.Completion{
		ExerciseID:   "fb-2",
		ExerciseType: exercise.TypeFillBlank,
		PointsEarned: 10,
	})
	if errors.Cause(err) != errDiskFull {
		t.Fatalf("RecordCompletion() error = %v, want %v", err, errDiskFull)
	}
	if recorded {
		t.Errorf("RecordCompletion() = true on a store failure, want false")
	}
	agg, err := gamifySvc.ForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ForUser() failed: %v", err)
	}
	if agg.TotalPoints != 0 {
		t.Errorf("a failed completion credited %d points, want 0", agg.TotalPoints)
	}
}
