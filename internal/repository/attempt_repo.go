package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/pyquest-go-api/internal/models"
)

// AttemptRepository is the attempt-storage collaborator: the grading core
// hands finished attempts over and reads counts back for hint unlocking.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.Attempt) error
	CountForExercise(ctx context.Context, exerciseID, studentID uint) (int64, error)
	ListByStudent(ctx context.Context, studentID uint, limit int) ([]models.Attempt, error)
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository builds a gorm-backed attempt repository.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.Attempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepository) CountForExercise(ctx context.Context, exerciseID, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("exercise_id = ? AND student_id = ?", exerciseID, studentID).
		Count(&count).Error
	return count, err
}

func (r *attemptRepository) ListByStudent(ctx context.Context, studentID uint, limit int) ([]models.Attempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var attempts []models.Attempt
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at desc").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}
