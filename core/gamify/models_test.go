package gamify

import (
	"testing"
	"time"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		points int
		want   int
	}{
		{points: 0, want: 1},
		{points: 99, want: 1},
		{points: 100, want: 2},
		{points: 199, want: 2},
		{points: 450, want: 5},
		{points: 900, want: 10},
		{points: 1000, want: 10}, // capped
		{points: 99999, want: 10},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.points); got != tt.want {
			t.Errorf("LevelFor(%d) = %d, want %d", tt.points, got, tt.want)
		}
	}
}

func TestNextStreak(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name    string
		last    time.Time
		today   time.Time
		current int
		want    int
	}{
		{name: "no prior activity", today: day(10), current: 0, want: 1},
		{name: "same day", last: day(10), today: day(10), current: 4, want: 4},
		{name: "same day, late evening", last: day(10), today: day(10).Add(23 * time.Hour), current: 4, want: 4},
		{name: "consecutive day", last: day(9), today: day(10), current: 4, want: 5},
		{name: "midnight boundary", last: day(9).Add(23 * time.Hour), today: day(10).Add(time.Hour), current: 4, want: 5},
		{name: "one day missed", last: day(7), today: day(9), current: 4, want: 1},
		{name: "long gap", last: day(1), today: day(28), current: 12, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextStreak(tt.last, tt.today, tt.current); got != tt.want {
				t.Errorf("NextStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBadgeEarned(t *testing.T) {
	agg := Aggregate{TotalPoints: 250, LongestStreak: 7, ExercisesCompleted: 12}

	tests := []struct {
		name  string
		badge Badge
		want  bool
	}{
		{name: "points met", badge: Badge{Kind: BadgeKindPoints, Threshold: 250}, want: true},
		{name: "points not met", badge: Badge{Kind: BadgeKindPoints, Threshold: 251}},
		{name: "streak met", badge: Badge{Kind: BadgeKindStreak, Threshold: 7}, want: true},
		{name: "streak uses the longest, not the current", badge: Badge{Kind: BadgeKindStreak, Threshold: 8}},
		{name: "exercises met", badge: Badge{Kind: BadgeKindExercises, Threshold: 10}, want: true},
		{name: "unknown kind", badge: Badge{Kind: "mystery", Threshold: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.badge.Earned(agg); got != tt.want {
				t.Errorf("Earned() = %v, want %v", got, tt.want)
			}
		})
	}
}
