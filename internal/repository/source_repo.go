package repository

import (
	"context"
	"fmt"

	"github.com/jwhitfield/ottarr/internal/models"
	"gorm.io/gorm"
)

// sourceRepo implements SourceRepository using GORM.
type sourceRepo struct {
	db *gorm.DB
}

// NewSourceRepository creates a new SourceRepository.
func NewSourceRepository(db *gorm.DB) *sourceRepo {
	return &sourceRepo{db: db}
}

// Create creates a new source.
func (r *sourceRepo) Create(ctx context.Context, source *models.Source) error {
	if err := r.db.WithContext(ctx).Create(source).Error; err != nil {
		return fmt.Errorf("creating source: %w", err)
	}
	return nil
}

// GetByID retrieves a source by ID.
func (r *sourceRepo) GetByID(ctx context.Context, id models.ULID) (*models.Source, error) {
	var source models.Source
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&source).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting source by ID: %w", err)
	}
	return &source, nil
}

// GetAll retrieves all sources ordered by name.
func (r *sourceRepo) GetAll(ctx context.Context) ([]*models.Source, error) {
	var sources []*models.Source
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("getting all sources: %w", err)
	}
	return sources, nil
}

// GetByName retrieves a source by name.
func (r *sourceRepo) GetByName(ctx context.Context, name string) (*models.Source, error) {
	var source models.Source
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&source).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting source by name: %w", err)
	}
	return &source, nil
}

// GetActive retrieves the currently active source, or nil if none.
func (r *sourceRepo) GetActive(ctx context.Context) (*models.Source, error) {
	var source models.Source
	if err := r.db.WithContext(ctx).Where("active = ?", true).First(&source).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting active source: %w", err)
	}
	return &source, nil
}

// SetActive marks the given source active and deactivates all others.
func (r *sourceRepo) SetActive(ctx context.Context, id models.ULID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var source models.Source
		if err := tx.Where("id = ?", id).First(&source).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.ErrNoActiveSource
			}
			return fmt.Errorf("getting source: %w", err)
		}
		if !source.IsEnabled() {
			return fmt.Errorf("source %q is disabled", source.Name)
		}
		if err := tx.Model(&models.Source{}).
			Where("active = ? AND id != ?", true, id).
			Update("active", false).Error; err != nil {
			return fmt.Errorf("deactivating sources: %w", err)
		}
		if err := tx.Model(&models.Source{}).
			Where("id = ?", id).
			Update("active", true).Error; err != nil {
			return fmt.Errorf("activating source: %w", err)
		}
		return nil
	})
}

// Update updates an existing source.
func (r *sourceRepo) Update(ctx context.Context, source *models.Source) error {
	if err := r.db.WithContext(ctx).Save(source).Error; err != nil {
		return fmt.Errorf("updating source: %w", err)
	}
	return nil
}

// UpdateLastError records the error message from the last failed sync.
func (r *sourceRepo) UpdateLastError(ctx context.Context, id models.ULID, message string) error {
	if err := r.db.WithContext(ctx).Model(&models.Source{}).
		Where("id = ?", id).
		Update("last_error", message).Error; err != nil {
		return fmt.Errorf("updating source last error: %w", err)
	}
	return nil
}

// Delete deletes a source and all rows that reference it.
func (r *sourceRepo) Delete(ctx context.Context, id models.ULID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&models.ContentItem{}, &models.Category{}, &models.CacheMetadata{},
			&models.Favorite{}, &models.WatchHistory{},
		} {
			if err := tx.Where("source_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("deleting source rows: %w", err)
			}
		}
		if err := tx.Where("id = ?", id).Delete(&models.Source{}).Error; err != nil {
			return fmt.Errorf("deleting source: %w", err)
		}
		return nil
	})
}
