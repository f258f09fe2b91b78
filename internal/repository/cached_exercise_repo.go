package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pyquest-go-api/internal/models"
)

// cachedExerciseRepository fronts the gorm repository with a redis cache.
// Exercise definitions are immutable once published, so cache invalidation is
// just TTL expiry.
type cachedExerciseRepository struct {
	inner  ExerciseRepository
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedExerciseRepository wraps repo with a redis read-through cache.
func NewCachedExerciseRepository(repo ExerciseRepository, client *redis.Client, ttl time.Duration, logger zerolog.Logger) ExerciseRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &cachedExerciseRepository{
		inner:  repo,
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "exercise_cache").Logger(),
	}
}

// cachedExercise carries the reference solution explicitly; the model keeps
// it out of JSON (json:"-") so a plain round-trip would lose it.
type cachedExercise struct {
	Exercise          models.Exercise `json:"exercise"`
	ReferenceSolution string          `json:"reference_solution,omitempty"`
}

func (r *cachedExerciseRepository) GetByID(ctx context.Context, id uint) (models.Exercise, error) {
	key := fmt.Sprintf("exercise:%d", id)

	if payload, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var entry cachedExercise
		if err := json.Unmarshal(payload, &entry); err == nil && entry.Exercise.ID != 0 {
			entry.Exercise.ReferenceSolution = entry.ReferenceSolution
			return entry.Exercise, nil
		}
		// A corrupt entry falls through to the database.
		r.client.Del(ctx, key)
	}

	exercise, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return models.Exercise{}, err
	}

	entry := cachedExercise{Exercise: exercise, ReferenceSolution: exercise.ReferenceSolution}
	if payload, err := json.Marshal(entry); err == nil {
		if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			r.logger.Warn().Err(err).Uint("exercise_id", id).Msg("failed to cache exercise")
		}
	}

	return exercise, nil
}

func (r *cachedExerciseRepository) List(ctx context.Context) ([]models.Exercise, error) {
	return r.inner.List(ctx)
}
