package service

import (
	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/model"
)

// Actor is the authenticated member on whose behalf a service call runs
type Actor struct {
	ID   uuid.UUID
	Role model.Role
}

func (a Actor) IsAdmin() bool  { return a.Role == model.RoleAdmin }
func (a Actor) IsAgent() bool  { return a.Role == model.RoleAgent }
func (a Actor) IsClient() bool { return a.Role == model.RoleClient }

// EventPublisher delivers realtime events to a member's open connections
type EventPublisher interface {
	SendToUser(userID uuid.UUID, event *model.WSEvent)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
