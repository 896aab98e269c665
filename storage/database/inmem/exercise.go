package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/exercise"
)

type exerciseRepository struct {
	db *exerciseTable
}

var _ exercise.Repository = (*exerciseRepository)(nil)

func NewExerciseRepository(db *DB) *exerciseRepository {
	return &exerciseRepository{db: db.exercise}
}

func (repo *exerciseRepository) InsertProgress(_ context.Context, prog exercise.Progress, _ ...core.DBExecutor) (exercise.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	k := key(prog.UserID, prog.ExerciseID)
	if _, ok := repo.db.progress[k]; ok {
		return exercise.Progress{}, exercise.ErrAlreadyCompleted
	}
	prog.ID = uuid.New().String()
	repo.db.progress[k] = &prog
	return prog, nil
}

func (repo *exerciseRepository) GetProgress(_ context.Context, userID, exerciseID string, _ ...core.DBExecutor) (exercise.Progress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prog, ok := repo.db.progress[key(userID, exerciseID)]; ok {
		return *prog, nil
	}
	return exercise.Progress{}, exercise.ErrNotFound
}

func (repo *exerciseRepository) QueryUserProgress(_ context.Context, userID string, _ ...core.DBExecutor) ([]exercise.Progress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	progs := make([]exercise.Progress, 0)
	for _, prog := range repo.db.progress {
		if prog.UserID == userID {
			progs = append(progs, *prog)
		}
	}
	sort.Slice(progs, func(i, j int) bool { return progs[i].CompletedAt.After(progs[j].CompletedAt) })
	return progs, nil
}

func (repo *exerciseRepository) BumpTypeStats(_ context.Context, userID, exerciseType string, correct bool, at time.Time, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	k := key(userID, exerciseType)
	stats, ok := repo.db.stats[k]
	if !ok {
		stats = &exercise.TypeStats{UserID: userID, ExerciseType: exerciseType}
		repo.db.stats[k] = stats
	}
	stats.Attempts++
	if correct {
		stats.Correct++
	}
	stats.UpdatedAt = at
	return nil
}
