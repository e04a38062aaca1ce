package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/repository"
	"github.com/homenest/homenest-api/pkg/logger"
	"go.uber.org/zap"
)

// AdminService backs the administrative portal. Every call requires an admin actor.
type AdminService struct {
	userRepo     *repository.UserRepository
	propertyRepo *repository.PropertyRepository
	apptRepo     *repository.AppointmentRepository
	otp          *OTPService
}

func NewAdminService(
	userRepo *repository.UserRepository,
	propertyRepo *repository.PropertyRepository,
	apptRepo *repository.AppointmentRepository,
	otp *OTPService,
) *AdminService {
	return &AdminService{
		userRepo:     userRepo,
		propertyRepo: propertyRepo,
		apptRepo:     apptRepo,
		otp:          otp,
	}
}

func requireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return apperr.New(apperr.ErrForbidden, "Administrator access required")
	}
	return nil
}

// ListUsers pages through members, optionally by role
func (s *AdminService) ListUsers(ctx context.Context, actor Actor, req model.UserListRequest) (*model.PagedResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	page, pageSize := normalizePage(req.Page, req.PageSize)
	users, total, err := s.userRepo.List(ctx, req.Role, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]model.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, users[i].ToResponse())
	}
	return &model.PagedResponse{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// SetUserActive enables or disables an account. Admins cannot disable themselves.
func (s *AdminService) SetUserActive(ctx context.Context, actor Actor, userID uuid.UUID, active bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if userID == actor.ID && !active {
		return apperr.New(apperr.ErrInvalidInput, "You cannot deactivate your own account")
	}
	if err := s.userRepo.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "User not found")
		}
		return err
	}
	logger.Info(ctx, "Account status changed",
		zap.String("user_id", userID.String()),
		zap.Bool("active", active),
		zap.String("admin_id", actor.ID.String()),
	)
	return nil
}

// DeleteProperty removes any listing
func (s *AdminService) DeleteProperty(ctx context.Context, actor Actor, propertyID uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.propertyRepo.Delete(ctx, propertyID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return errPropertyNotFound
		}
		return err
	}
	return nil
}

// PurgeOTP removes every passcode record of an email address
func (s *AdminService) PurgeOTP(ctx context.Context, actor Actor, email string) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	return s.otp.DeleteAllForEmail(ctx, email)
}

// Stats counts members by role, listings by status and appointments by status
func (s *AdminService) Stats(ctx context.Context, actor Actor) (*model.PlatformStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	users, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	properties, err := s.propertyRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	appointments, err := s.apptRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &model.PlatformStats{
		UsersByRole:          users,
		PropertiesByStatus:   properties,
		AppointmentsByStatus: appointments,
	}, nil
}
