package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/exercise"
)

type exerciseRepository struct {
	repository
}

var _ exercise.Repository = (*exerciseRepository)(nil) // interface compliance check

func NewExerciseRepository(exec core.DBExecutor) *exerciseRepository {
	return &exerciseRepository{repository{exec: exec}}
}

type exerciseProgressRow struct {
	ID           string      `db:"id"`
	UserID       string      `db:"user_id"`
	ExerciseID   string      `db:"exercise_id"`
	ExerciseType string      `db:"exercise_type"`
	IsCompleted  bool        `db:"is_completed"`
	IsCorrect    bool        `db:"is_correct"`
	PointsEarned int         `db:"points_earned"`
	UserAnswer   null.String `db:"user_answer"`
	CompletedAt  time.Time   `db:"completed_at"`
}

func (r exerciseProgressRow) toProgress() exercise.Progress {
	return exercise.Progress{
		ID:           r.ID,
		UserID:       r.UserID,
		ExerciseID:   r.ExerciseID,
		ExerciseType: r.ExerciseType,
		IsCompleted:  r.IsCompleted,
		IsCorrect:    r.IsCorrect,
		PointsEarned: r.PointsEarned,
		UserAnswer:   r.UserAnswer.String,
		CompletedAt:  r.CompletedAt,
	}
}

const exerciseProgressColumns = `id, user_id, exercise_id, exercise_type, is_completed, is_correct, points_earned, user_answer, completed_at`

// InsertProgress is a plain insert: the unique (user_id, exercise_id)
// constraint is the only arbiter of "already credited", so a lost race
// surfaces as ErrAlreadyCompleted and aborts the caller's transaction.
func (repo exerciseRepository) InsertProgress(ctx context.Context, prog exercise.Progress, exec ...core.DBExecutor) (exercise.Progress, error) {
	prog.ID = uuid.New().String()
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO exercise_progress (`+exerciseProgressColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		prog.ID, prog.UserID, prog.ExerciseID, prog.ExerciseType,
		prog.IsCompleted, prog.IsCorrect, prog.PointsEarned,
		null.NewString(prog.UserAnswer, prog.UserAnswer != ""),
		prog.CompletedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "exercise_progress_user_exercise_key") {
			return exercise.Progress{}, exercise.ErrAlreadyCompleted
		}
		return exercise.Progress{}, errors.Wrap(err, "inserting exercise progress")
	}
	return prog, nil
}

func (repo exerciseRepository) GetProgress(ctx context.Context, userID, exerciseID string, exec ...core.DBExecutor) (exercise.Progress, error) {
	var row exerciseProgressRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`SELECT `+exerciseProgressColumns+` FROM exercise_progress WHERE user_id = $1 AND exercise_id = $2`,
		userID, exerciseID,
	)
	if err != nil {
		return exercise.Progress{}, trapNoRowsErr(err, exercise.ErrNotFound, "getting exercise progress")
	}
	return row.toProgress(), nil
}

func (repo exerciseRepository) QueryUserProgress(ctx context.Context, userID string, exec ...core.DBExecutor) ([]exercise.Progress, error) {
	var rows []exerciseProgressRow
	err := repo.getExec(exec).SelectContext(ctx, &rows,
		`SELECT `+exerciseProgressColumns+` FROM exercise_progress WHERE user_id = $1 ORDER BY completed_at DESC`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying exercise progress")
	}
	progs := make([]exercise.Progress, 0, len(rows))
	for _, r := range rows {
		progs = append(progs, r.toProgress())
	}
	return progs, nil
}

func (repo exerciseRepository) BumpTypeStats(ctx context.Context, userID, exerciseType string, correct bool, at time.Time, exec ...core.DBExecutor) error {
	correctInc := 0
	if correct {
		correctInc = 1
	}
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO user_exercise_stats (user_id, exercise_type, attempts, correct, updated_at)
		 VALUES ($1, $2, 1, $3, $4)
		 ON CONFLICT (user_id, exercise_type)
		 DO UPDATE SET attempts   = user_exercise_stats.attempts + 1,
		               correct    = user_exercise_stats.correct + EXCLUDED.correct,
		               updated_at = EXCLUDED.updated_at`,
		userID, exerciseType, correctInc, at.UTC(),
	)
	return errors.Wrap(err, "bumping exercise type stats")
}
