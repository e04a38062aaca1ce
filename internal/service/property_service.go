package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/repository"
	"github.com/homenest/homenest-api/pkg/logger"
	"github.com/homenest/homenest-api/pkg/storage"
	"go.uber.org/zap"
)

const (
	MaxMediaPerUpload = 10
	MaxMediaSize      = 50 << 20
)

var allowedMedia = map[string]model.MediaType{
	"image/jpeg":      model.MediaTypeImage,
	"image/png":       model.MediaTypeImage,
	"image/gif":       model.MediaTypeImage,
	"image/webp":      model.MediaTypeImage,
	"video/mp4":       model.MediaTypeVideo,
	"video/webm":      model.MediaTypeVideo,
	"video/quicktime": model.MediaTypeVideo,
}

var (
	errPropertyNotFound   = apperr.New(apperr.ErrNotFound, "Property not found")
	errStorageUnavailable = apperr.New(apperr.ErrUnavailable, "File storage is unavailable")
)

// PropertyService manages listings and their media
type PropertyService struct {
	propertyRepo *repository.PropertyRepository
	storage      storage.Storage
	now          func() time.Time
}

func NewPropertyService(propertyRepo *repository.PropertyRepository, store storage.Storage) *PropertyService {
	return &PropertyService{
		propertyRepo: propertyRepo,
		storage:      store,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create publishes a listing owned by the calling agent
func (s *PropertyService) Create(ctx context.Context, actor Actor, req model.CreatePropertyRequest) (*model.Property, error) {
	if !actor.IsAgent() {
		return nil, apperr.New(apperr.ErrForbidden, "Only agents can create listings")
	}

	p := &model.Property{
		AgentID:      actor.ID,
		Title:        req.Title,
		Description:  req.Description,
		PropertyType: req.PropertyType,
		ListingType:  req.ListingType,
		Price:        req.Price,
		Address:      req.Address,
		City:         req.City,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		AreaSqm:      req.AreaSqm,
		Status:       model.PropertyStatusAvailable,
	}
	if err := s.propertyRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Property created", zap.String("property_id", p.ID.String()), zap.String("agent_id", actor.ID.String()))
	return s.Get(ctx, p.ID)
}

// Get returns a listing with its media
func (s *PropertyService) Get(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	p, err := s.propertyRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errPropertyNotFound
		}
		return nil, err
	}
	return p, nil
}

// Update applies the provided fields for the owning agent or an admin
func (s *PropertyService) Update(ctx context.Context, actor Actor, id uuid.UUID, req model.UpdatePropertyRequest) (*model.Property, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.PropertyType != nil {
		fields["property_type"] = *req.PropertyType
	}
	if req.ListingType != nil {
		fields["listing_type"] = *req.ListingType
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.Address != nil {
		fields["address"] = *req.Address
	}
	if req.City != nil {
		fields["city"] = *req.City
	}
	if req.Bedrooms != nil {
		fields["bedrooms"] = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		fields["bathrooms"] = *req.Bathrooms
	}
	if req.AreaSqm != nil {
		fields["area_sqm"] = *req.AreaSqm
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}

	if err := s.propertyRepo.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes a listing. Media objects stay in the bucket until an admin purges them.
func (s *PropertyService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.propertyRepo.Delete(ctx, id)
}

// Search lists listings matching the request, newest first
func (s *PropertyService) Search(ctx context.Context, req model.PropertySearchRequest) (*model.PagedResponse, error) {
	filter := repository.PropertyFilter{
		City:         strings.TrimSpace(req.City),
		PropertyType: req.PropertyType,
		ListingType:  req.ListingType,
		Status:       req.Status,
		MinPrice:     req.MinPrice,
		MaxPrice:     req.MaxPrice,
		MinBedrooms:  req.MinBedrooms,
	}
	if req.AgentID != "" {
		agentID, err := uuid.Parse(req.AgentID)
		if err != nil {
			return nil, apperr.New(apperr.ErrInvalidInput, "agent_id must be a UUID")
		}
		filter.AgentID = &agentID
	}
	if filter.MaxPrice > 0 && filter.MinPrice > filter.MaxPrice {
		return nil, apperr.New(apperr.ErrInvalidInput, "min_price cannot exceed max_price")
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	items, total, err := s.propertyRepo.Search(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &model.PagedResponse{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// UploadMedia stores images and videos for a listing and appends them in upload order
func (s *PropertyService) UploadMedia(ctx context.Context, actor Actor, propertyID uuid.UUID, files []*multipart.FileHeader) ([]model.PropertyMedia, error) {
	if _, err := s.owned(ctx, actor, propertyID); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, errStorageUnavailable
	}
	if len(files) == 0 {
		return nil, apperr.New(apperr.ErrInvalidInput, "No files provided")
	}
	if len(files) > MaxMediaPerUpload {
		return nil, apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("At most %d files per upload", MaxMediaPerUpload))
	}

	kinds := make([]model.MediaType, len(files))
	for i, fh := range files {
		if fh.Size > MaxMediaSize {
			return nil, apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("%s exceeds the 50MB limit", fh.Filename))
		}
		kind, ok := allowedMedia[storage.ContentType(fh)]
		if !ok {
			return nil, apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("%s is not a supported image or video", fh.Filename))
		}
		kinds[i] = kind
	}

	position, err := s.propertyRepo.NextMediaPosition(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	folder := "properties/" + propertyID.String()
	media := make([]model.PropertyMedia, 0, len(files))
	for i, fh := range files {
		result, err := s.uploadOne(ctx, fh, folder)
		if err != nil {
			s.discard(ctx, media)
			return nil, err
		}
		media = append(media, model.PropertyMedia{
			PropertyID: propertyID,
			Type:       kinds[i],
			URL:        result.URL,
			ObjectKey:  result.Key,
			FileName:   result.FileName,
			FileSize:   result.FileSize,
			MimeType:   result.MimeType,
			Position:   position + i,
			CreatedAt:  s.now(),
		})
	}

	if err := s.propertyRepo.AddMedia(ctx, media); err != nil {
		s.discard(ctx, media)
		return nil, err
	}
	return media, nil
}

func (s *PropertyService) uploadOne(ctx context.Context, fh *multipart.FileHeader, folder string) (*storage.UploadResult, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, "Failed to read uploaded file", err)
	}
	defer file.Close()

	result, err := s.storage.Upload(ctx, file, fh, folder)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistenceFailure, "Failed to store file", err)
	}
	return result, nil
}

// discard removes objects whose rows were never written
func (s *PropertyService) discard(ctx context.Context, media []model.PropertyMedia) {
	for _, m := range media {
		if err := s.storage.Delete(ctx, m.ObjectKey); err != nil {
			logger.Warn(ctx, "Failed to remove orphaned object", zap.String("key", m.ObjectKey), zap.Error(err))
		}
	}
}

// DeleteMedia removes one media item and its stored object
func (s *PropertyService) DeleteMedia(ctx context.Context, actor Actor, propertyID, mediaID uuid.UUID) error {
	if _, err := s.owned(ctx, actor, propertyID); err != nil {
		return err
	}
	m, err := s.propertyRepo.FindMedia(ctx, propertyID, mediaID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "Media not found")
		}
		return err
	}
	if err := s.propertyRepo.DeleteMedia(ctx, m.ID); err != nil {
		return err
	}
	if s.storage == nil {
		return nil
	}
	if err := s.storage.Delete(ctx, m.ObjectKey); err != nil {
		logger.Warn(ctx, "Failed to remove media object", zap.String("key", m.ObjectKey), zap.Error(err))
	}
	return nil
}

func (s *PropertyService) owned(ctx context.Context, actor Actor, id uuid.UUID) (*model.Property, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && p.AgentID != actor.ID {
		return nil, apperr.New(apperr.ErrForbidden, "Only the listing agent can change this property")
	}
	return p, nil
}
