package gamify

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
)

var (
	ErrNotFound = errors.New("gamification aggregate not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		GetAggregate(ctx context.Context, userID string, exec ...core.DBExecutor) (Aggregate, error)
		UpsertAggregate(ctx context.Context, agg Aggregate, exec ...core.DBExecutor) (Aggregate, error)
		AppendPointsHistory(ctx context.Context, entry PointsEntry, exec ...core.DBExecutor) error
		QueryTopAggregates(ctx context.Context, limit int, exec ...core.DBExecutor) ([]Aggregate, error)
		QueryBadges(ctx context.Context, exec ...core.DBExecutor) ([]Badge, error)
		// AwardBadge inserts the (userID, badgeID) pair if absent and reports
		// whether a new row was written.
		AwardBadge(ctx context.Context, userID, badgeID string, at time.Time, exec ...core.DBExecutor) (bool, error)
		QueryUserBadges(ctx context.Context, userID string, exec ...core.DBExecutor) ([]UserBadge, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Accrue credits points to the user's aggregate and appends a history
// entry. Callers running inside a transaction pass its executor so the
// accrual commits or rolls back with the ledger insert that triggered it.
func (svc *Service) Accrue(ctx context.Context, userID string, points int, reason string, exec ...core.DBExecutor) (Aggregate, error) {
	agg, err := svc.repo.GetAggregate(ctx, userID, exec...)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Aggregate{}, errors.Wrap(err, "reading aggregate")
		}
		agg = Aggregate{UserID: userID} // first activity: zero-state
	}

	now := nowFunc().UTC()
	agg.TotalPoints += points
	agg.CurrentLevel = LevelFor(agg.TotalPoints)
	agg.CurrentStreak = NextStreak(agg.LastActivityDate, now, agg.CurrentStreak)
	if agg.CurrentStreak > agg.LongestStreak {
		agg.LongestStreak = agg.CurrentStreak
	}
	agg.LastActivityDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	agg.ExercisesCompleted++

	if agg, err = svc.repo.UpsertAggregate(ctx, agg, exec...); err != nil {
		return Aggregate{}, errors.Wrap(err, "upserting aggregate")
	}
	if err = svc.repo.AppendPointsHistory(ctx, PointsEntry{
		UserID:    userID,
		Points:    points,
		Reason:    reason,
		CreatedAt: now,
	}, exec...); err != nil {
		return Aggregate{}, errors.Wrap(err, "appending points history")
	}
	return agg, nil
}

// CheckBadges awards any badges the aggregate now satisfies. Best-effort:
// a failed award is logged, not surfaced, so it never blocks crediting.
func (svc *Service) CheckBadges(ctx context.Context, agg Aggregate) {
	badges, err := svc.repo.QueryBadges(ctx)
	if err != nil {
		svc.logger.Warn("querying badges", err)
		return
	}
	now := nowFunc().UTC()
	for _, b := range badges {
		if !b.Earned(agg) {
			continue
		}
		if _, err = svc.repo.AwardBadge(ctx, agg.UserID, b.ID, now); err != nil {
			svc.logger.Warn("awarding badge "+b.Slug, err)
		}
	}
}

// ForUser returns the aggregate, zero-state if the user has no activity.
func (svc *Service) ForUser(ctx context.Context, userID string) (Aggregate, error) {
	agg, err := svc.repo.GetAggregate(ctx, userID)
	if errors.Cause(err) == ErrNotFound {
		return Aggregate{UserID: userID, CurrentLevel: 1}, nil
	}
	return agg, err
}

// Leaderboard returns the top aggregates by total points.
func (svc *Service) Leaderboard(ctx context.Context) ([]Aggregate, error) {
	return svc.repo.QueryTopAggregates(ctx, LeaderboardSize)
}

func (svc *Service) UserBadges(ctx context.Context, userID string) ([]UserBadge, error) {
	return svc.repo.QueryUserBadges(ctx, userID)
}

func (svc *Service) Badges(ctx context.Context) ([]Badge, error) {
	return svc.repo.QueryBadges(ctx)
}
