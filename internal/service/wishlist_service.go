package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/repository"
)

// WishlistService manages the listings a client has saved
type WishlistService struct {
	wishlistRepo *repository.WishlistRepository
	propertyRepo *repository.PropertyRepository
	now          func() time.Time
}

func NewWishlistService(wishlistRepo *repository.WishlistRepository, propertyRepo *repository.PropertyRepository) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		propertyRepo: propertyRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Add saves a listing. Saving it again is a no-op.
func (s *WishlistService) Add(ctx context.Context, actor Actor, propertyID uuid.UUID) error {
	if !actor.IsClient() {
		return apperr.New(apperr.ErrForbidden, "Only clients have a wishlist")
	}
	if _, err := s.propertyRepo.FindByID(ctx, propertyID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return errPropertyNotFound
		}
		return err
	}
	return s.wishlistRepo.Add(ctx, &model.WishlistItem{
		UserID:     actor.ID,
		PropertyID: propertyID,
		CreatedAt:  s.now(),
	})
}

// Remove unsaves a listing
func (s *WishlistService) Remove(ctx context.Context, actor Actor, propertyID uuid.UUID) error {
	if !actor.IsClient() {
		return apperr.New(apperr.ErrForbidden, "Only clients have a wishlist")
	}
	err := s.wishlistRepo.Remove(ctx, actor.ID, propertyID)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.New(apperr.ErrNotFound, "Property is not in your wishlist")
	}
	return err
}

// List returns saved listings, dropping ones that have since been removed
func (s *WishlistService) List(ctx context.Context, actor Actor) ([]model.WishlistItem, error) {
	if !actor.IsClient() {
		return nil, apperr.New(apperr.ErrForbidden, "Only clients have a wishlist")
	}
	items, err := s.wishlistRepo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	live := items[:0]
	for _, item := range items {
		if item.Property != nil {
			live = append(live, item)
		}
	}
	return live, nil
}
