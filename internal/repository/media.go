package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ahlanjobb/api/internal/model"
	ctxutil "github.com/ahlanjobb/api/pkg/context"
	"github.com/ahlanjobb/api/pkg/logger"
	"gorm.io/gorm"
)

type MediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) GetByID(ctx context.Context, id uint) (*model.Media, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "GetMediaByID")

	start := time.Now()
	var media model.Media
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&media)
	duration := time.Since(start)

	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			logger.ErrorWithContext(ctx, "Failed to get media by ID").
				Uint("media_id", id).
				Duration(duration).
				Err(result.Error).
				Log()
		}
		return nil, result.Error
	}

	return &media, nil
}

func (r *MediaRepository) Create(ctx context.Context, media *model.Media) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "CreateMedia")

	start := time.Now()
	if err := r.db.WithContext(ctx).Create(media).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to create media").
			String("url", media.OriginalURL).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "Media created successfully").
		Uint("media_id", media.ID).
		Duration(time.Since(start)).
		Log()

	return nil
}

func (r *MediaRepository) Update(ctx context.Context, id uint, cols map[string]any) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "UpdateMedia")

	result := r.db.WithContext(ctx).Model(&model.Media{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update media").
			Uint("media_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *MediaRepository) Delete(ctx context.Context, id uint) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "DeleteMedia")

	result := r.db.WithContext(ctx).Delete(&model.Media{}, id)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete media").
			Uint("media_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *MediaRepository) List(ctx context.Context, limit, offset int) ([]model.Media, int64, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "ListMedia")

	start := time.Now()
	var total int64
	query := r.db.WithContext(ctx).Model(&model.Media{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var media []model.Media
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&media).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to list media").
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, 0, err
	}

	logger.DebugWithContext(ctx, "Media listed successfully").
		Int64("total", total).
		Int("returned_count", len(media)).
		Duration(time.Since(start)).
		Log()

	return media, total, nil
}
