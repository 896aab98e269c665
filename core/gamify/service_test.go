package gamify

import (
	"context"
	"testing"
	"time"

	"github.com/kitabiapp/kitabi/core"
	testutil "github.com/kitabiapp/kitabi/tests"
)

// memRepo is a minimal in-test store.
type memRepo struct {
	aggregates map[string]Aggregate
	history    []PointsEntry
	badges     []Badge
	awarded    map[string]time.Time // user ID + "/" + badge ID

	failAward bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		aggregates: make(map[string]Aggregate),
		awarded:    make(map[string]time.Time),
	}
}

func (r *memRepo) GetAggregate(_ context.Context, userID string, _ ...core.DBExecutor) (Aggregate, error) {
	agg, ok := r.aggregates[userID]
	if !ok {
		return Aggregate{}, ErrNotFound
	}
	return agg, nil
}

func (r *memRepo) UpsertAggregate(_ context.Context, agg Aggregate, _ ...core.DBExecutor) (Aggregate, error) {
	r.aggregates[agg.UserID] = agg
	return agg, nil
}

func (r *memRepo) AppendPointsHistory(_ context.Context, entry PointsEntry, _ ...core.DBExecutor) error {
	r.history = append(r.history, entry)
	return nil
}

func (r *memRepo) QueryTopAggregates(_ context.Context, limit int, _ ...core.DBExecutor) ([]Aggregate, error) {
	top := make([]Aggregate, 0, limit)
	for _, agg := range r.aggregates {
		top = append(top, agg)
	}
	return top, nil
}

func (r *memRepo) QueryBadges(context.Context, ...core.DBExecutor) ([]Badge, error) {
	return r.badges, nil
}

func (r *memRepo) AwardBadge(_ context.Context, userID, badgeID string, at time.Time, _ ...core.DBExecutor) (bool, error) {
	if r.failAward {
		return false, context.DeadlineExceeded
	}
	k := userID + "/" + badgeID
	if _, ok := r.awarded[k]; ok {
		return false, nil
	}
	r.awarded[k] = at
	return true, nil
}

func (r *memRepo) QueryUserBadges(_ context.Context, userID string, _ ...core.DBExecutor) ([]UserBadge, error) {
	var badges []UserBadge
	for k, at := range r.awarded {
		if len(k) > len(userID) && k[:len(userID)] == userID {
			badges = append(badges, UserBadge{UserID: userID, BadgeID: k[len(userID)+1:], AwardedAt: at})
		}
	}
	return badges, nil
}

func TestServiceAccrue(t *testing.T) {
	defer func() { nowFunc = time.Now }()

	day1 := time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	nowFunc = func() time.Time { return day1 }
	ctx := context.Background()

	repo := newMemRepo()
	svc := NewService(repo, testutil.NopLogger{})

	// first activity starts from the zero-state
	agg, err := svc.Accrue(ctx, "u1", 10, "exercise:ex1")
	if err != nil {
		t.Fatalf("Accrue() failed: %v", err)
	}
	want := Aggregate{
		UserID:             "u1",
		TotalPoints:        10,
		CurrentLevel:       1,
		CurrentStreak:      1,
		LongestStreak:      1,
		LastActivityDate:   time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		ExercisesCompleted: 1,
	}
	if agg != want {
		t.Errorf("Accrue() = %+v, want %+v", agg, want)
	}

	// same day: streak unchanged, points pile up
	if agg, err = svc.Accrue(ctx, "u1", 95, "exercise:ex2"); err != nil {
		t.Fatalf("Accrue() failed: %v", err)
	}
	if agg.TotalPoints != 105 || agg.CurrentLevel != 2 || agg.CurrentStreak != 1 {
		t.Errorf("Accrue() = %+v, want points 105 level 2 streak 1", agg)
	}

	// next day: streak increments and tracks the longest
	nowFunc = func() time.Time { return day1.Add(24 * time.Hour) }
	if agg, err = svc.Accrue(ctx, "u1", 5, "exercise:ex3"); err != nil {
		t.Fatalf("Accrue() failed: %v", err)
	}
	if agg.CurrentStreak != 2 || agg.LongestStreak != 2 {
		t.Errorf("Accrue() streak = %d/%d, want 2/2", agg.CurrentStreak, agg.LongestStreak)
	}

	// a gap resets the current streak but keeps the longest
	nowFunc = func() time.Time { return day1.Add(5 * 24 * time.Hour) }
	if agg, err = svc.Accrue(ctx, "u1", 5, "exercise:ex4"); err != nil {
		t.Fatalf("Accrue() failed: %v", err)
	}
	if agg.CurrentStreak != 1 || agg.LongestStreak != 2 {
		t.Errorf("Accrue() streak = %d/%d, want 1/2", agg.CurrentStreak, agg.LongestStreak)
	}

	if len(repo.history) != 4 {
		t.Errorf("Accrue() wrote %d history entries, want 4", len(repo.history))
	}
	if repo.history[0].Reason != "exercise:ex1" || repo.history[0].Points != 10 {
		t.Errorf("history[0] = %+v, want exercise:ex1 / 10", repo.history[0])
	}
}

func TestServiceCheckBadges(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	repo.badges = []Badge{
		{ID: "b1", Slug: "first-steps", Kind: BadgeKindExercises, Threshold: 1},
		{ID: "b2", Slug: "century", Kind: BadgeKindPoints, Threshold: 100},
		{ID: "b3", Slug: "week-streak", Kind: BadgeKindStreak, Threshold: 7},
	}
	svc := NewService(repo, testutil.NopLogger{})

	agg := Aggregate{UserID: "u1", TotalPoints: 120, LongestStreak: 3, ExercisesCompleted: 2}
	svc.CheckBadges(ctx, agg)

	badges, err := svc.UserBadges(ctx, "u1")
	if err != nil {
		t.Fatalf("UserBadges() failed: %v", err)
	}
	if len(badges) != 2 {
		t.Fatalf("CheckBadges() awarded %d badges, want 2", len(badges))
	}
	for _, ub := range badges {
		if ub.BadgeID == "b3" {
			t.Errorf("CheckBadges() awarded an unearned badge")
		}
	}

	// re-checking never double-awards
	svc.CheckBadges(ctx, agg)
	if badges, _ = svc.UserBadges(ctx, "u1"); len(badges) != 2 {
		t.Errorf("CheckBadges() re-awarded badges: got %d, want 2", len(badges))
	}

	// award failures are logged, not surfaced
	repo.failAward = true
	svc.CheckBadges(ctx, Aggregate{UserID: "u2", TotalPoints: 500})
}

func TestServiceForUserZeroState(t *testing.T) {
	svc := NewService(newMemRepo(), testutil.NopLogger{})

	agg, err := svc.ForUser(context.Background(), "newcomer")
	if err != nil {
		t.Fatalf("ForUser() failed: %v", err)
	}
	if agg.UserID != "newcomer" || agg.CurrentLevel != 1 || agg.TotalPoints != 0 {
		t.Errorf("ForUser() = %+v, want the level-1 zero-state", agg)
	}
}
