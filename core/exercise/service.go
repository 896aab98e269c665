package exercise

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/gamify"
)

var (
	// ErrAlreadyCompleted is the designed negative path of the ledger
	// insert: the (user, exercise) pair was already credited. Repositories
	// map their store's uniqueness violation to it.
	ErrAlreadyCompleted = errors.New("exercise already completed")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// InsertProgress attempts a plain insert under the unique
		// (UserID, ExerciseID) constraint and returns ErrAlreadyCompleted
		// when the constraint rejects it. Never an upsert: the constraint,
		// not an application-level check, decides whether points were
		// already granted.
		InsertProgress(ctx context.Context, prog Progress, exec ...core.DBExecutor) (Progress, error)
		GetProgress(ctx context.Context, userID, exerciseID string, exec ...core.DBExecutor) (Progress, error)
		QueryUserProgress(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Progress, error)
		// BumpTypeStats increments the user's attempt counters for the type.
		BumpTypeStats(ctx context.Context, userID, exerciseType string, correct bool, at time.Time, exec ...core.DBExecutor) error
	}

	Service struct {
		db        core.DB
		repo      Repository
		gamifySvc *gamify.Service
		logger    core.Logger
	}
)

var ErrNotFound = errors.New("exercise progress not found")

func NewService(db core.DB, repo Repository, gamifySvc *gamify.Service, logger core.Logger) *Service {
	return &Service{
		db:        db,
		repo:      repo,
		gamifySvc: gamifySvc,
		logger:    logger,
	}
}

// atomically runs fn inside a DB transaction. In-memory repositories are
// already transactional under their own lock, so a nil DB runs fn directly.
func (svc *Service) atomically(ctx context.Context, fn func(exec ...core.DBExecutor) error) error {
	if svc.db == nil {
		return fn()
	}
	return core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		return fn(tx)
	})
}

// RecordCompletion records the completion exactly once per (user,
// exercise) pair and credits points exactly once. The ledger insert,
// aggregate upsert, history append and type-stats bump commit together.
//
// Returns true only when this call wrote the ledger row. A resubmission
// (two tabs, a double-click, a network retry) loses the insert race,
// returns false and credits nothing. Any other store failure is returned
// as an error with nothing credited: under-crediting beats double-crediting.
func (svc *Service) RecordCompletion(ctx context.Context, userID string, c Completion) (bool, error) {
	now := nowFunc().UTC()
	prog := Progress{
		UserID:       userID,
		ExerciseID:   c.ExerciseID,
		ExerciseType: c.ExerciseType,
		IsCompleted:  true,
		IsCorrect:    c.IsCorrect,
		PointsEarned: c.PointsEarned,
		UserAnswer:   c.UserAnswer,
		CompletedAt:  now,
	}

	var agg gamify.Aggregate
	err := svc.atomically(ctx, func(exec ...core.DBExecutor) error {
		if _, err := svc.repo.InsertProgress(ctx, prog, exec...); err != nil {
			return err
		}
		var err error
		if agg, err = svc.gamifySvc.Accrue(ctx, userID, c.PointsEarned, "exercise:"+c.ExerciseID, exec...); err != nil {
			return err
		}
		return svc.repo.BumpTypeStats(ctx, userID, c.ExerciseType, c.IsCorrect, now, exec...)
	})
	if err != nil {
		if errors.Cause(err) == ErrAlreadyCompleted {
			return false, nil // already credited, nothing to do
		}
		svc.logger.Error("recording exercise completion", err)
		return false, err
	}

	svc.gamifySvc.CheckBadges(ctx, agg)
	return true, nil
}

// Get returns the ledger entry for one exercise.
func (svc *Service) Get(ctx context.Context, userID, exerciseID string) (Progress, error) {
	return svc.repo.GetProgress(ctx, userID, exerciseID)
}

// ForUser lists all of the user's ledger entries.
func (svc *Service) ForUser(ctx context.Context, userID string) ([]Progress, error) {
	return svc.repo.QueryUserProgress(ctx, userID)
}
