package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"gorm.io/gorm"
)

// PropertyFilter holds the optional search criteria; zero values are ignored
type PropertyFilter struct {
	City         string
	PropertyType string
	ListingType  string
	Status       string
	MinPrice     float64
	MaxPrice     float64
	MinBedrooms  int
	AgentID      *uuid.UUID
}

// PropertyRepository handles database operations for listings and their media
type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// Create inserts a new listing
func (r *PropertyRepository) Create(ctx context.Context, p *model.Property) error {
	return translateError(dbFrom(ctx, r.db).Create(p).Error)
}

// FindByID loads a listing with its media in display order
func (r *PropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	var p model.Property
	err := dbFrom(ctx, r.db).
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

// Update applies the given columns
func (r *PropertyRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := dbFrom(ctx, r.db).Model(&model.Property{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Delete soft-deletes a listing
func (r *PropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := dbFrom(ctx, r.db).Where("id = ?", id).Delete(&model.Property{})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Search returns a page of listings matching filter, newest first
func (r *PropertyRepository) Search(ctx context.Context, f PropertyFilter, page, pageSize int) ([]model.Property, int64, error) {
	query := dbFrom(ctx, r.db).Model(&model.Property{})
	if f.City != "" {
		query = query.Where("LOWER(city) = LOWER(?)", f.City)
	}
	if f.PropertyType != "" {
		query = query.Where("property_type = ?", f.PropertyType)
	}
	if f.ListingType != "" {
		query = query.Where("listing_type = ?", f.ListingType)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.MinPrice > 0 {
		query = query.Where("price >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		query = query.Where("price <= ?", f.MaxPrice)
	}
	if f.MinBedrooms > 0 {
		query = query.Where("bedrooms >= ?", f.MinBedrooms)
	}
	if f.AgentID != nil {
		query = query.Where("agent_id = ?", *f.AgentID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	properties := []model.Property{}
	err := query.
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&properties).Error
	return properties, total, translateError(err)
}

// CountByStatus groups live listings by status
func (r *PropertyRepository) CountByStatus(ctx context.Context) (map[model.PropertyStatus]int64, error) {
	var rows []struct {
		Status model.PropertyStatus
		Count  int64
	}
	err := dbFrom(ctx, r.db).Model(&model.Property{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	counts := make(map[model.PropertyStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// AddMedia inserts media rows for a listing
func (r *PropertyRepository) AddMedia(ctx context.Context, media []model.PropertyMedia) error {
	if len(media) == 0 {
		return nil
	}
	return translateError(dbFrom(ctx, r.db).Create(&media).Error)
}

// NextMediaPosition returns the position after the last media item
func (r *PropertyRepository) NextMediaPosition(ctx context.Context, propertyID uuid.UUID) (int, error) {
	var maxPos int
	err := dbFrom(ctx, r.db).Model(&model.PropertyMedia{}).
		Where("property_id = ?", propertyID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&maxPos).Error
	if err != nil {
		return 0, translateError(err)
	}
	return maxPos + 1, nil
}

// FindMedia finds one media item of a listing
func (r *PropertyRepository) FindMedia(ctx context.Context, propertyID, mediaID uuid.UUID) (*model.PropertyMedia, error) {
	var m model.PropertyMedia
	err := dbFrom(ctx, r.db).
		Where("id = ? AND property_id = ?", mediaID, propertyID).
		First(&m).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &m, nil
}

// DeleteMedia removes one media row
func (r *PropertyRepository) DeleteMedia(ctx context.Context, mediaID uuid.UUID) error {
	return translateError(dbFrom(ctx, r.db).Where("id = ?", mediaID).Delete(&model.PropertyMedia{}).Error)
}
