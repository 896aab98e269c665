package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/gamify"
)

type gamifyRepository struct {
	repository
}

var _ gamify.Repository = (*gamifyRepository)(nil) // interface compliance check

func NewGamifyRepository(exec core.DBExecutor) *gamifyRepository {
	return &gamifyRepository{repository{exec: exec}}
}

type aggregateRow struct {
	UserID             string    `db:"user_id"`
	TotalPoints        int       `db:"total_points"`
	CurrentLevel       int       `db:"current_level"`
	CurrentStreak      int       `db:"current_streak"`
	LongestStreak      int       `db:"longest_streak"`
	LastActivityDate   null.Time `db:"last_activity_date"`
	ExercisesCompleted int       `db:"exercises_completed"`
}

func (r aggregateRow) toAggregate() gamify.Aggregate {
	return gamify.Aggregate{
		UserID:             r.UserID,
		TotalPoints:        r.TotalPoints,
		CurrentLevel:       r.CurrentLevel,
		CurrentStreak:      r.CurrentStreak,
		LongestStreak:      r.LongestStreak,
		LastActivityDate:   r.LastActivityDate.Time,
		ExercisesCompleted: r.ExercisesCompleted,
	}
}

const aggregateColumns = `user_id, total_points, current_level, current_streak, longest_streak, last_activity_date, exercises_completed`

func (repo gamifyRepository) GetAggregate(ctx context.Context, userID string, exec ...core.DBExecutor) (gamify.Aggregate, error) {
	var row aggregateRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`SELECT `+aggregateColumns+` FROM user_gamification WHERE user_id = $1`, userID)
	if err != nil {
		return gamify.Aggregate{}, trapNoRowsErr(err, gamify.ErrNotFound, "getting aggregate")
	}
	return row.toAggregate(), nil
}

func (repo gamifyRepository) UpsertAggregate(ctx context.Context, agg gamify.Aggregate, exec ...core.DBExecutor) (gamify.Aggregate, error) {
	var row aggregateRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`INSERT INTO user_gamification (`+aggregateColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id)
		 DO UPDATE SET total_points        = EXCLUDED.total_points,
		               current_level       = EXCLUDED.current_level,
		               current_streak      = EXCLUDED.current_streak,
		               longest_streak      = EXCLUDED.longest_streak,
		               last_activity_date  = EXCLUDED.last_activity_date,
		               exercises_completed = EXCLUDED.exercises_completed
		 RETURNING `+aggregateColumns,
		agg.UserID, agg.TotalPoints, agg.CurrentLevel, agg.CurrentStreak, agg.LongestStreak,
		null.NewTime(agg.LastActivityDate, !agg.LastActivityDate.IsZero()),
		agg.ExercisesCompleted,
	)
	if err != nil {
		return gamify.Aggregate{}, errors.Wrap(err, "upserting aggregate")
	}
	return row.toAggregate(), nil
}

func (repo gamifyRepository) AppendPointsHistory(ctx context.Context, entry gamify.PointsEntry, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO points_history (id, user_id, points, reason, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), entry.UserID, entry.Points,
		null.NewString(entry.Reason, entry.Reason != ""),
		entry.CreatedAt.UTC(),
	)
	return errors.Wrap(err, "appending points history")
}

func (repo gamifyRepository) QueryTopAggregates(ctx context.Context, limit int, exec ...core.DBExecutor) ([]gamify.Aggregate, error) {
	var rows []aggregateRow
	err := repo.getExec(exec).SelectContext(ctx, &rows,
		`SELECT `+aggregateColumns+` FROM user_gamification ORDER BY total_points DESC, user_id LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying top aggregates")
	}
	aggs := make([]gamify.Aggregate, 0, len(rows))
	for _, r := range rows {
		aggs = append(aggs, r.toAggregate())
	}
	return aggs, nil
}

type badgeRow struct {
	ID          string      `db:"id"`
	Slug        string      `db:"slug"`
	Name        null.String `db:"name"`
	Description null.String `db:"description"`
	Kind        string      `db:"kind"`
	Threshold   int         `db:"threshold"`
}

func (r badgeRow) toBadge() gamify.Badge {
	return gamify.Badge{
		ID:          r.ID,
		Slug:        r.Slug,
		Name:        r.Name.String,
		Description: r.Description.String,
		Kind:        r.Kind,
		Threshold:   r.Threshold,
	}
}

func (repo gamifyRepository) QueryBadges(ctx context.Context, exec ...core.DBExecutor) ([]gamify.Badge, error) {
	var rows []badgeRow
	err := repo.getExec(exec).SelectContext(ctx, &rows,
		`SELECT id, slug, name, description, kind, threshold FROM badge ORDER BY threshold`)
	if err != nil {
		return nil, errors.Wrap(err, "querying badges")
	}
	badges := make([]gamify.Badge, 0, len(rows))
	for _, r := range rows {
		badges = append(badges, r.toBadge())
	}
	return badges, nil
}

func (repo gamifyRepository) AwardBadge(ctx context.Context, userID, badgeID string, at time.Time, exec ...core.DBExecutor) (bool, error) {
	res, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO user_badge (user_id, badge_id, awarded_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, badge_id) DO NOTHING`,
		userID, badgeID, at.UTC(),
	)
	if err != nil {
		return false, errors.Wrap(err, "awarding badge")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

type userBadgeRow struct {
	UserID    string    `db:"user_id"`
	BadgeID   string    `db:"badge_id"`
	AwardedAt time.Time `db:"awarded_at"`
}

func (repo gamifyRepository) QueryUserBadges(ctx context.Context, userID string, exec ...core.DBExecutor) ([]gamify.UserBadge, error) {
	var rows []userBadgeRow
	err := repo.getExec(exec).SelectContext(ctx, &rows,
		`SELECT user_id, badge_id, awarded_at FROM user_badge WHERE user_id = $1 ORDER BY awarded_at`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying user badges")
	}
	badges := make([]gamify.UserBadge, 0, len(rows))
	for _, r := range rows {
		badges = append(badges, gamify.UserBadge{UserID: r.UserID, BadgeID: r.BadgeID, AwardedAt: r.AwardedAt})
	}
	return badges, nil
}
