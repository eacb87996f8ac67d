package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/glucolog/backend/internal/analysis"
	"github.com/glucolog/backend/internal/models"
)

// ErrNotFound is returned when a reading does not exist or belongs to a
// different user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("record not found")

const analysisCacheTTL = 5 * time.Minute

// ReadingFilter narrows a user's reading list. Zero values mean no filter.
type ReadingFilter struct {
	Search    string
	Date      string
	Condition string
}

// ReadingInput carries the mutable fields of a reading. BloodSugar and Age
// arrive already coerced by the transport layer.
type ReadingInput struct {
	Date        string
	Time        string
	BloodSugar  float64
	Age         string
	Type        string
	Description string
	Condition   string
}

// ReadingUpdate carries the fields of an update request. Nil fields are left
// untouched on the stored reading.
type ReadingUpdate struct {
	Date        *string
	Time        *string
	BloodSugar  *float64
	Age         *string
	Type        *string
	Description *string
	Condition   *string
}

// ReadingService owns all persistence around readings plus the Redis-backed
// analysis summary cache. The cache client may be nil.
type ReadingService struct {
	db    *gorm.DB
	cache *redis.Client
}

func NewReadingService(db *gorm.DB, cache *redis.Client) *ReadingService {
	return &ReadingService{
		db:    db,
		cache: cache,
	}
}

// List returns the user's readings matching the filter, newest first.
func (s *ReadingService) List(ctx context.Context, userID uuid.UUID, filter ReadingFilter) ([]models.Reading, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)

	if filter.Search != "" {
		like := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		query = query.Where(`LOWER(description) LIKE ? ESCAPE '\' OR LOWER(condition) LIKE ? ESCAPE '\'`, like, like)
	}
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}
	if filter.Condition != "" && filter.Condition != "unassigned" {
		query = query.Where("condition = ?", filter.Condition)
	}

	records := []models.Reading{}
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Latest returns the most recently created reading for the user, or nil when
// none exists.
func (s *ReadingService) Latest(ctx context.Context, userID uuid.UUID) (*models.Reading, error) {
	var reading models.Reading
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&reading).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

// Create persists a new reading for the user, applying the documented
// defaults for optional fields.
func (s *ReadingService) Create(ctx context.Context, userID uuid.UUID, input ReadingInput) (*models.Reading, error) {
	reading := models.Reading{
		UserID:      userID,
		Date:        input.Date,
		Time:        input.Time,
		BloodSugar:  input.BloodSugar,
		Age:         input.Age,
		Type:        input.Type,
		Description: input.Description,
		Condition:   input.Condition,
	}
	if reading.Type == "" {
		reading.Type = "food"
	}
	if reading.Condition == "" {
		reading.Condition = "normal"
	}

	if err := s.db.WithContext(ctx).Create(&reading).Error; err != nil {
		return nil, err
	}

	s.invalidateAnalysis(ctx, userID)
	return &reading, nil
}

// Update rewrites the provided fields of an existing reading after
// re-verifying ownership. Omitted fields keep their stored values.
func (s *ReadingService) Update(ctx context.Context, userID, id uuid.UUID, input ReadingUpdate) (*models.Reading, error) {
	var reading models.Reading
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&reading).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if input.Date != nil {
		reading.Date = *input.Date
	}
	if input.Time != nil {
		reading.Time = *input.Time
	}
	if input.BloodSugar != nil {
		reading.BloodSugar = *input.BloodSugar
	}
	if input.Age != nil {
		reading.Age = *input.Age
	}
	if input.Type != nil {
		reading.Type = *input.Type
	}
	if input.Description != nil {
		reading.Description = *input.Description
	}
	if input.Condition != nil {
		reading.Condition = *input.Condition
	}

	if err := s.db.WithContext(ctx).Save(&reading).Error; err != nil {
		return nil, err
	}

	s.invalidateAnalysis(ctx, userID)
	return &reading, nil
}

// Delete removes a reading after re-verifying ownership.
func (s *ReadingService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	var reading models.Reading
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&reading).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&reading).Error; err != nil {
		return err
	}

	s.invalidateAnalysis(ctx, userID)
	return nil
}

// AnalysisSummary runs the classifiers over the user's full record set,
// serving from Redis when a fresh summary is cached.
func (s *ReadingService) AnalysisSummary(ctx context.Context, userID uuid.UUID) (*analysis.Summary, error) {
	key := analysisCacheKey(userID)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var summary analysis.Summary
			if err := json.Unmarshal(data, &summary); err == nil {
				return &summary, nil
			}
		}
	}

	records, err := s.List(ctx, userID, ReadingFilter{})
	if err != nil {
		return nil, err
	}
	summary := analysis.Summarize(records)

	if s.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, key, data, analysisCacheTTL).Err(); err != nil {
				log.Printf("[ReadingService] failed to cache analysis summary: %v", err)
			}
		}
	}

	return &summary, nil
}

func (s *ReadingService) invalidateAnalysis(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, analysisCacheKey(userID)).Err(); err != nil {
		log.Printf("[ReadingService] failed to invalidate analysis cache: %v", err)
	}
}

func analysisCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("analysis:summary:%s", userID)
}

// escapeLike neutralizes LIKE metacharacters so search terms match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
