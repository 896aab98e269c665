package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/gamify"
)

type gamifyRepository struct {
	db *gamifyTable
}

var _ gamify.Repository = (*gamifyRepository)(nil)

func NewGamifyRepository(db *DB) *gamifyRepository {
	return &gamifyRepository{db: db.gamify}
}

// SeedBadges loads the badge catalog, normally seeded by migrations.
func (repo *gamifyRepository) SeedBadges(badges []gamify.Badge) {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, b := range badges {
		b := b
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		repo.db.badges[b.ID] = &b
	}
}

func (repo *gamifyRepository) GetAggregate(_ context.Context, userID string, _ ...core.DBExecutor) (gamify.Aggregate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if agg, ok := repo.db.aggregates[userID]; ok {
		return *agg, nil
	}
	return gamify.Aggregate{}, gamify.ErrNotFound
}

func (repo *gamifyRepository) UpsertAggregate(_ context.Context, agg gamify.Aggregate, _ ...core.DBExecutor) (gamify.Aggregate, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.aggregates[agg.UserID] = &agg
	return agg, nil
}

func (repo *gamifyRepository) AppendPointsHistory(_ context.Context, entry gamify.PointsEntry, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	entry.ID = uuid.New().String()
	repo.db.history = append(repo.db.history, entry)
	return nil
}

func (repo *gamifyRepository) QueryTopAggregates(_ context.Context, limit int, _ ...core.DBExecutor) ([]gamify.Aggregate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	aggs := make([]gamify.Aggregate, 0, len(repo.db.aggregates))
	for _, agg := range repo.db.aggregates {
		aggs = append(aggs, *agg)
	}
	sort.Slice(aggs, func(i, j int) bool {
		if aggs[i].TotalPoints != aggs[j].TotalPoints {
			return aggs[i].TotalPoints > aggs[j].TotalPoints
		}
		return aggs[i].UserID < aggs[j].UserID
	})
	if len(aggs) > limit {
		aggs = aggs[:limit]
	}
	return aggs, nil
}

func (repo *gamifyRepository) QueryBadges(_ context.Context, _ ...core.DBExecutor) ([]gamify.Badge, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	badges := make([]gamify.Badge, 0, len(repo.db.badges))
	for _, b := range repo.db.badges {
		badges = append(badges, *b)
	}
	sort.Slice(badges, func(i, j int) bool { return badges[i].Threshold < badges[j].Threshold })
	return badges, nil
}

func (repo *gamifyRepository) AwardBadge(_ context.Context, userID, badgeID string, at time.Time, _ ...core.DBExecutor) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	k := key(userID, badgeID)
	if _, ok := repo.db.awarded[k]; ok {
		return false, nil
	}
	repo.db.awarded[k] = gamify.UserBadge{UserID: userID, BadgeID: badgeID, AwardedAt: at}
	return true, nil
}

func (repo *gamifyRepository) QueryUserBadges(_ context.Context, userID string, _ ...core.DBExecutor) ([]gamify.UserBadge, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	badges := make([]gamify.UserBadge, 0)
	for _, ub := range repo.db.awarded {
		if ub.UserID == userID {
			badges = append(badges, ub)
		}
	}
	sort.Slice(badges, func(i, j int) bool { return badges[i].AwardedAt.Before(badges[j].AwardedAt) })
	return badges, nil
}
