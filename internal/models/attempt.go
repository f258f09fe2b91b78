package models

import (
	"time"

	"gorm.io/datatypes"
)

// Attempt is one recorded grading outcome. The core treats attempt storage as
// an external collaborator; this model is the default gorm-backed wiring.
type Attempt struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ExerciseID      uint           `gorm:"index;not null" json:"exercise_id"`
	StudentID       uint           `gorm:"index;not null" json:"student_id"`
	Type            ExerciseType   `gorm:"size:32;not null" json:"type"`
	Score           int            `json:"score"`
	Passed          bool           `json:"passed"`
	Feedback        string         `gorm:"type:text" json:"feedback"`
	Submitted       string         `gorm:"type:text" json:"-"`
	Stdout          string         `gorm:"type:text" json:"stdout,omitempty"`
	Stderr          string         `gorm:"type:text" json:"stderr,omitempty"`
	TruncatedStdout bool           `json:"truncated_stdout"`
	TruncatedStderr bool           `json:"truncated_stderr"`
	ChangedLines    int            `json:"changed_lines,omitempty"`
	Breakdown       datatypes.JSON `gorm:"type:jsonb" json:"breakdown,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}
