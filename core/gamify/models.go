package gamify

import "time"

const (
	MaxLevel        = 10
	PointsPerLevel  = 100
	LeaderboardSize = 20
)

// Aggregate is the denormalized per-user rollup derived from the exercise
// ledger. It is only ever mutated by the accrual path.
type Aggregate struct {
	UserID             string    `json:"user_id"`
	TotalPoints        int       `json:"total_points"`
	CurrentLevel       int       `json:"current_level"`
	CurrentStreak      int       `json:"current_streak"`
	LongestStreak      int       `json:"longest_streak"`
	LastActivityDate   time.Time `json:"last_activity_date"` // date only, UTC
	ExercisesCompleted int       `json:"exercises_completed"`
}

// PointsEntry is one immutable line of the points history log.
type PointsEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Points    int       `json:"points"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Badge kinds: which aggregate figure the threshold applies to.
const (
	BadgeKindPoints    = "points"
	BadgeKindStreak    = "streak"
	BadgeKindExercises = "exercises"
)

type Badge struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Threshold   int    `json:"threshold"`
}

type UserBadge struct {
	UserID    string    `json:"user_id"`
	BadgeID   string    `json:"badge_id"`
	AwardedAt time.Time `json:"awarded_at"` // UTC
}

// Earned reports whether agg satisfies the badge's threshold.
func (b Badge) Earned(agg Aggregate) bool {
	switch b.Kind {
	case BadgeKindPoints:
		return agg.TotalPoints >= b.Threshold
	case BadgeKindStreak:
		return agg.LongestStreak >= b.Threshold
	case BadgeKindExercises:
		return agg.ExercisesCompleted >= b.Threshold
	}
	return false
}

// LevelFor computes the level for a points total: one level per 100
// points, starting at 1 and capped at 10.
func LevelFor(totalPoints int) int {
	level := totalPoints/PointsPerLevel + 1
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// NextStreak computes the streak after an activity on `today` given the
// previous activity date: same day keeps it, exactly yesterday increments
// it, any larger gap (or no prior activity) resets it to 1.
func NextStreak(lastActivity, today time.Time, current int) int {
	if lastActivity.IsZero() {
		return 1
	}
	switch daysBetween(lastActivity, today) {
	case 0:
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}

// daysBetween counts calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
