package exercise

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Exercise types
const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
	TypeFillBlank      = "fill_blank"
	TypeMatching       = "matching"
)

var AllTypes = []string{TypeMultipleChoice, TypeTrueFalse, TypeFillBlank, TypeMatching}

// Progress is one ledger entry: "this user completed this exercise".
// At most one completed, points-bearing row ever exists per
// (UserID, ExerciseID); the row's existence is the sole authority for
// whether points were granted.
type Progress struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ExerciseID   string    `json:"exercise_id"`
	ExerciseType string    `json:"exercise_type"`
	IsCompleted  bool      `json:"is_completed"`
	IsCorrect    bool      `json:"is_correct"`
	PointsEarned int       `json:"points_earned"`
	UserAnswer   string    `json:"user_answer"`
	CompletedAt  time.Time `json:"completed_at"` // UTC
}

// TypeStats is the per-user rollup of attempts by exercise type.
type TypeStats struct {
	UserID       string    `json:"user_id"`
	ExerciseType string    `json:"exercise_type"`
	Attempts     int       `json:"attempts"`
	Correct      int       `json:"correct"`
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// Completion is the payload a client submits when finishing an exercise.
type Completion struct {
	ExerciseID   string `json:"exercise_id" validate:"required"`
	ExerciseType string `json:"exercise_type" validate:"required,exercisetype"`
	IsCorrect    bool   `json:"is_correct"`
	PointsEarned int    `json:"points_earned" validate:"min=0,max=100"`
	UserAnswer   string `json:"user_answer"`
}

func (c *Completion) Validate(validate *validator.Validate) error {
	return validate.Struct(c)
}
