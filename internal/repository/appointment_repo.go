package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"gorm.io/gorm"
)

// AppointmentFilter narrows list queries; nil fields are ignored
type AppointmentFilter struct {
	AgentID    *uuid.UUID
	ClientID   *uuid.UUID
	PropertyID *uuid.UUID
	Status     *model.AppointmentStatus
}

// AppointmentRepository handles database operations for viewing appointments
type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create inserts a new appointment
func (r *AppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	return translateError(dbFrom(ctx, r.db).Create(appt).Error)
}

// FindByID finds an appointment by ID
func (r *AppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appt model.Appointment
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&appt).Error; err != nil {
		return nil, translateError(err)
	}
	return &appt, nil
}

// UpdateFields writes the given columns as-is; updated_at is stamped by the caller
func (r *AppointmentRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := dbFrom(ctx, r.db).Model(&model.Appointment{}).
		Where("id = ?", id).
		UpdateColumns(fields)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Delete physically removes an appointment (administrative)
func (r *AppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := dbFrom(ctx, r.db).Where("id = ?", id).Delete(&model.Appointment{})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// HasConflict reports whether the agent holds a non-cancelled appointment
// scheduled within [from, to], both ends inclusive
func (r *AppointmentRepository) HasConflict(ctx context.Context, agentID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) (bool, error) {
	query := dbFrom(ctx, r.db).Model(&model.Appointment{}).
		Where("agent_id = ? AND status <> ?", agentID, model.AppointmentCancelled).
		Where("scheduled_at BETWEEN ? AND ?", from, to)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// LockAgent serializes schedule writes for one agent until the surrounding
// transaction ends. Only PostgreSQL has advisory locks; other dialects rely
// on their own write serialization.
func (r *AppointmentRepository) LockAgent(ctx context.Context, agentID uuid.UUID) error {
	db := dbFrom(ctx, r.db)
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return translateError(db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", agentID.String()).Error)
}

func (r *AppointmentRepository) detailQuery(ctx context.Context) *gorm.DB {
	return dbFrom(ctx, r.db).
		Table("schedule_properties AS sp").
		Select(`sp.id, sp.external_id, sp.property_id, sp.agent_id, sp.client_id,
			sp.scheduled_at, sp.status, sp.notes, sp.created_at, sp.updated_at,
			p.title AS property_title, p.address AS property_address,
			a.name AS agent_name, a.email AS agent_email, a.phone AS agent_phone,
			c.name AS client_name, c.email AS client_email, c.phone AS client_phone`).
		Joins("JOIN properties p ON p.id = sp.property_id").
		Joins("JOIN users a ON a.id = sp.agent_id").
		Joins("JOIN users c ON c.id = sp.client_id")
}

// FindDetail returns the appointment joined with property, agent and client display fields
func (r *AppointmentRepository) FindDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	var detail model.AppointmentDetail
	if err := r.detailQuery(ctx).Where("sp.id = ?", id).Take(&detail).Error; err != nil {
		return nil, translateError(err)
	}
	return &detail, nil
}

// List returns detail views matching filter, newest schedule first
func (r *AppointmentRepository) List(ctx context.Context, filter AppointmentFilter, page, pageSize int) ([]model.AppointmentDetail, int64, error) {
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.AgentID != nil {
			q = q.Where("sp.agent_id = ?", *filter.AgentID)
		}
		if filter.ClientID != nil {
			q = q.Where("sp.client_id = ?", *filter.ClientID)
		}
		if filter.PropertyID != nil {
			q = q.Where("sp.property_id = ?", *filter.PropertyID)
		}
		if filter.Status != nil {
			q = q.Where("sp.status = ?", *filter.Status)
		}
		return q
	}

	var total int64
	if err := apply(dbFrom(ctx, r.db).Table("schedule_properties AS sp")).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	details := []model.AppointmentDetail{}
	err := apply(r.detailQuery(ctx)).
		Order("sp.scheduled_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&details).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return details, total, nil
}

// CountByStatus groups all appointments by status
func (r *AppointmentRepository) CountByStatus(ctx context.Context) (map[model.AppointmentStatus]int64, error) {
	var rows []struct {
		Status model.AppointmentStatus
		Count  int64
	}
	err := dbFrom(ctx, r.db).Model(&model.Appointment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	counts := make(map[model.AppointmentStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
