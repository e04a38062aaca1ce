package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/repository"
	"github.com/homenest/homenest-api/pkg/logger"
	"github.com/homenest/homenest-api/pkg/mailer"
	"github.com/homenest/homenest-api/pkg/metrics"
	"github.com/homenest/homenest-api/pkg/notification"
	"go.uber.org/zap"
)

// ScheduleService books property viewings. An agent never holds two
// non-cancelled viewings within slotWindow of each other.
type ScheduleService struct {
	tx           *repository.Transactor
	apptRepo     *repository.AppointmentRepository
	propertyRepo *repository.PropertyRepository
	userRepo     *repository.UserRepository
	events       EventPublisher
	notifier     notification.Notifier
	sender       mailer.EmailSender
	metrics      *metrics.Metrics
	slotWindow   time.Duration
	now          func() time.Time
}

func NewScheduleService(
	tx *repository.Transactor,
	apptRepo *repository.AppointmentRepository,
	propertyRepo *repository.PropertyRepository,
	userRepo *repository.UserRepository,
	events EventPublisher,
	notifier notification.Notifier,
	sender mailer.EmailSender,
	m *metrics.Metrics,
	slotWindow time.Duration,
) *ScheduleService {
	return &ScheduleService{
		tx:           tx,
		apptRepo:     apptRepo,
		propertyRepo: propertyRepo,
		userRepo:     userRepo,
		events:       events,
		notifier:     notifier,
		sender:       sender,
		metrics:      m,
		slotWindow:   slotWindow,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

var (
	errAppointmentNotFound = apperr.New(apperr.ErrNotFound, "Appointment not found")
	errCompleteCancelled   = apperr.New(apperr.ErrInvalidInput, "A cancelled viewing cannot be completed")
)

// IsTimeSlotAvailable reports whether the agent has no non-cancelled viewing
// within the slot window of at, boundaries included
func (s *ScheduleService) IsTimeSlotAvailable(ctx context.Context, agentID uuid.UUID, at time.Time, excludeID *uuid.UUID) (bool, error) {
	conflict, err := s.apptRepo.HasConflict(ctx, agentID, at.Add(-s.slotWindow), at.Add(s.slotWindow), excludeID)
	if err != nil {
		return false, err
	}
	return !conflict, nil
}

// CreateAppointment books a viewing with status scheduled
func (s *ScheduleService) CreateAppointment(ctx context.Context, actor Actor, req model.CreateScheduleRequest) (*model.AppointmentDetail, error) {
	detail, err := s.create(ctx, actor, req)
	s.metrics.ObserveAppointment("create", metrics.Outcome(err))
	if err != nil {
		return nil, err
	}

	s.announce(ctx, actor, detail, model.WSEventAppointmentCreated, "New viewing booked")
	s.emailConfirmation(ctx, detail)
	return detail, nil
}

func (s *ScheduleService) create(ctx context.Context, actor Actor, req model.CreateScheduleRequest) (*model.AppointmentDetail, error) {
	clientID, err := s.resolveClient(actor, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	at := req.ScheduleTime.UTC().Truncate(time.Second)
	if !at.After(now) {
		return nil, apperr.New(apperr.ErrInvalidInput, "The viewing time must be in the future")
	}

	if err := s.checkParticipants(ctx, req.PropertyID, req.AgentID, clientID); err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		PropertyID:  req.PropertyID,
		AgentID:     req.AgentID,
		ClientID:    clientID,
		ScheduledAt: at,
		Status:      model.AppointmentScheduled,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.apptRepo.LockAgent(ctx, appt.AgentID); err != nil {
			return err
		}
		available, err := s.IsTimeSlotAvailable(ctx, appt.AgentID, at, nil)
		if err != nil {
			return err
		}
		if !available {
			return apperr.ErrSlotUnavailable
		}
		return s.apptRepo.Create(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Appointment created",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("agent_id", appt.AgentID.String()),
		zap.Time("scheduled_at", appt.ScheduledAt),
	)
	return s.apptRepo.FindDetail(ctx, appt.ID)
}

// resolveClient applies the booking rules: clients book for themselves,
// agents book their own viewings for a named client, admins book anything.
func (s *ScheduleService) resolveClient(actor Actor, req model.CreateScheduleRequest) (uuid.UUID, error) {
	switch {
	case actor.IsClient():
		if req.ClientID != nil && *req.ClientID != actor.ID {
			return uuid.Nil, apperr.New(apperr.ErrForbidden, "Clients can only book viewings for themselves")
		}
		return actor.ID, nil
	case actor.IsAgent() && req.AgentID != actor.ID:
		return uuid.Nil, apperr.New(apperr.ErrForbidden, "Agents can only book their own viewings")
	case req.ClientID == nil:
		return uuid.Nil, apperr.New(apperr.ErrInvalidInput, "clientId is required")
	default:
		return *req.ClientID, nil
	}
}

func (s *ScheduleService) checkParticipants(ctx context.Context, propertyID, agentID, clientID uuid.UUID) error {
	property, err := s.propertyRepo.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "Property not found")
		}
		return err
	}
	if property.AgentID != agentID {
		return apperr.New(apperr.ErrInvalidInput, "The agent does not manage this property")
	}

	if err := s.checkMember(ctx, agentID, model.RoleAgent, "Agent not found"); err != nil {
		return err
	}
	return s.checkMember(ctx, clientID, model.RoleClient, "Client not found")
}

func (s *ScheduleService) checkMember(ctx context.Context, id uuid.UUID, role model.Role, notFound string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, notFound)
		}
		return err
	}
	if user.Role != role || !user.IsActive {
		return apperr.New(apperr.ErrNotFound, notFound)
	}
	return nil
}

// UpdateAppointment applies the provided fields. Moving the viewing, or
// reviving a cancelled one, re-checks the agent's availability.
func (s *ScheduleService) UpdateAppointment(ctx context.Context, actor Actor, id uuid.UUID, req model.UpdateScheduleRequest) (*model.AppointmentDetail, error) {
	detail, err := s.update(ctx, actor, id, req)
	s.metrics.ObserveAppointment("update", metrics.Outcome(err))
	if err != nil {
		return nil, err
	}

	eventType := model.WSEventAppointmentUpdated
	if req.Status != nil && *req.Status == model.AppointmentCancelled {
		eventType = model.WSEventAppointmentCanceled
	}
	s.announce(ctx, actor, detail, eventType, "Viewing updated")
	return detail, nil
}

func (s *ScheduleService) update(ctx context.Context, actor Actor, id uuid.UUID, req model.UpdateScheduleRequest) (*model.AppointmentDetail, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, apperr.New(apperr.ErrInvalidInput, "Unknown appointment status")
	}

	now := s.now()
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		appt, err := s.findAccessible(ctx, actor, id)
		if err != nil {
			return err
		}
		if req.Status != nil && *req.Status == model.AppointmentCompleted && !s.canComplete(actor, appt) {
			return apperr.New(apperr.ErrForbidden, "Only the agent can complete a viewing")
		}

		fields := map[string]interface{}{"updated_at": now}
		newTime := appt.ScheduledAt
		if req.ScheduleTime != nil {
			newTime = req.ScheduleTime.UTC().Truncate(time.Second)
			if !newTime.Equal(appt.ScheduledAt) {
				fields["scheduled_at"] = newTime
			}
		}
		newStatus := appt.Status
		if req.Status != nil {
			newStatus = *req.Status
			fields["status"] = newStatus
		}
		if req.Notes != nil {
			fields["notes"] = *req.Notes
		}

		if appt.Status == model.AppointmentCancelled && newStatus == model.AppointmentCompleted {
			return errCompleteCancelled
		}

		_, moved := fields["scheduled_at"]
		revived := appt.Status == model.AppointmentCancelled && newStatus != model.AppointmentCancelled
		if newStatus != model.AppointmentCancelled && (moved || revived) {
			if !newTime.After(now) {
				return apperr.New(apperr.ErrInvalidInput, "The viewing time must be in the future")
			}
			if err := s.apptRepo.LockAgent(ctx, appt.AgentID); err != nil {
				return err
			}
			available, err := s.IsTimeSlotAvailable(ctx, appt.AgentID, newTime, &appt.ID)
			if err != nil {
				return err
			}
			if !available {
				return apperr.ErrSlotUnavailable
			}
		}

		return s.apptRepo.UpdateFields(ctx, appt.ID, fields)
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errAppointmentNotFound
		}
		return nil, err
	}
	return s.apptRepo.FindDetail(ctx, id)
}

// Cancel marks the viewing cancelled, freeing the agent's slot
func (s *ScheduleService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*model.AppointmentDetail, error) {
	detail, err := s.setStatus(ctx, actor, id, model.AppointmentCancelled)
	s.metrics.ObserveAppointment("cancel", metrics.Outcome(err))
	if err != nil {
		return nil, err
	}
	s.announce(ctx, actor, detail, model.WSEventAppointmentCanceled, "Viewing cancelled")
	return detail, nil
}

// Complete marks the viewing as held
func (s *ScheduleService) Complete(ctx context.Context, actor Actor, id uuid.UUID) (*model.AppointmentDetail, error) {
	detail, err := s.setStatus(ctx, actor, id, model.AppointmentCompleted)
	s.metrics.ObserveAppointment("complete", metrics.Outcome(err))
	if err != nil {
		return nil, err
	}
	s.announce(ctx, actor, detail, model.WSEventAppointmentUpdated, "Viewing completed")
	return detail, nil
}

func (s *ScheduleService) setStatus(ctx context.Context, actor Actor, id uuid.UUID, status model.AppointmentStatus) (*model.AppointmentDetail, error) {
	appt, err := s.findAccessible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if status == model.AppointmentCompleted && !s.canComplete(actor, appt) {
		return nil, apperr.New(apperr.ErrForbidden, "Only the agent can complete a viewing")
	}
	// Only Update may bring a cancelled viewing back, and it re-checks the slot
	if status == model.AppointmentCompleted && appt.Status == model.AppointmentCancelled {
		return nil, errCompleteCancelled
	}

	err = s.apptRepo.UpdateFields(ctx, id, map[string]interface{}{
		"status":     status,
		"updated_at": s.now(),
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errAppointmentNotFound
		}
		return nil, err
	}
	return s.apptRepo.FindDetail(ctx, id)
}

// GetAppointment returns the detail view to a participant or admin
func (s *ScheduleService) GetAppointment(ctx context.Context, actor Actor, id uuid.UUID) (*model.AppointmentDetail, error) {
	detail, err := s.apptRepo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errAppointmentNotFound
		}
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != detail.AgentID && actor.ID != detail.ClientID {
		return nil, apperr.New(apperr.ErrForbidden, "You are not part of this appointment")
	}
	return detail, nil
}

// ListForAgent lists an agent's viewings, newest schedule first
func (s *ScheduleService) ListForAgent(ctx context.Context, actor Actor, agentID uuid.UUID, status *model.AppointmentStatus, page, pageSize int) ([]model.AppointmentDetail, int64, error) {
	if !actor.IsAdmin() && actor.ID != agentID {
		return nil, 0, apperr.New(apperr.ErrForbidden, "You can only list your own appointments")
	}
	page, pageSize = normalizePage(page, pageSize)
	return s.apptRepo.List(ctx, repository.AppointmentFilter{AgentID: &agentID, Status: status}, page, pageSize)
}

// ListForClient lists a client's viewings, newest schedule first
func (s *ScheduleService) ListForClient(ctx context.Context, actor Actor, clientID uuid.UUID, status *model.AppointmentStatus, page, pageSize int) ([]model.AppointmentDetail, int64, error) {
	if !actor.IsAdmin() && actor.ID != clientID {
		return nil, 0, apperr.New(apperr.ErrForbidden, "You can only list your own appointments")
	}
	page, pageSize = normalizePage(page, pageSize)
	return s.apptRepo.List(ctx, repository.AppointmentFilter{ClientID: &clientID, Status: status}, page, pageSize)
}

// ListForProperty lists the viewings of one listing to its agent or an admin
func (s *ScheduleService) ListForProperty(ctx context.Context, actor Actor, propertyID uuid.UUID, status *model.AppointmentStatus, page, pageSize int) ([]model.AppointmentDetail, int64, error) {
	property, err := s.propertyRepo.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, 0, apperr.New(apperr.ErrNotFound, "Property not found")
		}
		return nil, 0, err
	}
	if !actor.IsAdmin() && actor.ID != property.AgentID {
		return nil, 0, apperr.New(apperr.ErrForbidden, "Only the listing agent can see its viewings")
	}
	page, pageSize = normalizePage(page, pageSize)
	return s.apptRepo.List(ctx, repository.AppointmentFilter{PropertyID: &propertyID, Status: status}, page, pageSize)
}

// ListAll lists every viewing (admin portal)
func (s *ScheduleService) ListAll(ctx context.Context, actor Actor, status *model.AppointmentStatus, page, pageSize int) ([]model.AppointmentDetail, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, apperr.ErrForbidden
	}
	page, pageSize = normalizePage(page, pageSize)
	return s.apptRepo.List(ctx, repository.AppointmentFilter{Status: status}, page, pageSize)
}

// Delete physically removes an appointment. Admin only.
func (s *ScheduleService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return apperr.New(apperr.ErrForbidden, "Only administrators can delete appointments")
	}
	err := s.apptRepo.Delete(ctx, id)
	s.metrics.ObserveAppointment("delete", metrics.Outcome(err))
	if errors.Is(err, apperr.ErrNotFound) {
		return errAppointmentNotFound
	}
	return err
}

func (s *ScheduleService) findAccessible(ctx context.Context, actor Actor, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.apptRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errAppointmentNotFound
		}
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != appt.AgentID && actor.ID != appt.ClientID {
		return nil, apperr.New(apperr.ErrForbidden, "You are not part of this appointment")
	}
	return appt, nil
}

func (s *ScheduleService) canComplete(actor Actor, appt *model.Appointment) bool {
	return actor.IsAdmin() || actor.ID == appt.AgentID
}

// announce tells the other participants about a change. Delivery is best-effort.
func (s *ScheduleService) announce(ctx context.Context, actor Actor, detail *model.AppointmentDetail, eventType, title string) {
	recipients := make([]uuid.UUID, 0, 2)
	for _, id := range []uuid.UUID{detail.AgentID, detail.ClientID} {
		if id != actor.ID {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		return
	}

	if s.events != nil {
		event := &model.WSEvent{Type: eventType, Payload: detail}
		for _, id := range recipients {
			s.events.SendToUser(id, event)
		}
	}

	if s.notifier != nil {
		push := notification.Push{
			Title: title,
			Body:  detail.PropertyTitle + " - " + detail.ScheduledAt.Format("02 Jan 15:04 MST"),
			Data: map[string]string{
				"type":           eventType,
				"appointment_id": detail.ID.String(),
			},
		}
		if err := s.notifier.Notify(ctx, recipients, push); err != nil {
			logger.Warn(ctx, "Appointment push failed", zap.String("appointment_id", detail.ID.String()), zap.Error(err))
		}
	}
}

func (s *ScheduleService) emailConfirmation(ctx context.Context, detail *model.AppointmentDetail) {
	if s.sender == nil || detail.ClientEmail == "" {
		return
	}
	body, err := mailer.RenderAppointment(mailer.AppointmentEmail{
		Heading:         "Your viewing is booked",
		PropertyTitle:   detail.PropertyTitle,
		PropertyAddress: detail.PropertyAddress,
		AgentName:       detail.AgentName,
		ScheduledAt:     detail.ScheduledAt,
	})
	if err == nil {
		err = s.sender.Send(detail.ClientEmail, "HomeNest - Viewing confirmation", body, true)
	}
	if err != nil {
		logger.Warn(ctx, "Viewing confirmation email failed", zap.String("appointment_id", detail.ID.String()), zap.Error(err))
	}
}
