package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/pyquest-go-api/internal/models"
)

// ExerciseRepository reads exercise definitions. The grading core never
// writes them; authoring belongs to the content collaborator.
type ExerciseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Exercise, error)
	List(ctx context.Context) ([]models.Exercise, error)
}

type exerciseRepository struct {
	db *gorm.DB
}

// NewExerciseRepository builds a gorm-backed exercise repository.
func NewExerciseRepository(db *gorm.DB) ExerciseRepository {
	return &exerciseRepository{db: db}
}

func (r *exerciseRepository) GetByID(ctx context.Context, id uint) (models.Exercise, error) {
	var exercise models.Exercise
	if err := r.db.WithContext(ctx).First(&exercise, id).Error; err != nil {
		return models.Exercise{}, err
	}
	return exercise, nil
}

func (r *exerciseRepository) List(ctx context.Context) ([]models.Exercise, error) {
	var exercises []models.Exercise
	if err := r.db.WithContext(ctx).Order("id asc").Find(&exercises).Error; err != nil {
		return nil, err
	}
	return exercises, nil
}
