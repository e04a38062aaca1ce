package handler

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleHandler_CreateAndConflict(t *testing.T) {
	s := newTestServer(t)
	agent := testutil.CreateUser(t, s.db, model.RoleAgent, "agent@homenest.test")
	client := testutil.CreateUser(t, s.db, model.RoleClient, "client@homenest.test")
	other := testutil.CreateUser(t, s.db, model.RoleClient, "other@homenest.test")
	property := testutil.CreateProperty(t, s.db, agent.ID, "Da Nang")

	at := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	body := jsonBody{
		"propertyId":   property.ID,
		"agentId":      agent.ID,
		"scheduleTime": at.Format(time.RFC3339),
		"notes":        "Prefers mornings",
	}

	w := s.do(t, http.MethodPost, "/api/schedules", body, client)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.AppointmentDetail
	decode(t, w, &created)
	assert.Equal(t, model.AppointmentScheduled, created.Status)
	assert.Equal(t, client.ID, created.ClientID)
	assert.Equal(t, property.Title, created.PropertyTitle)
	assert.True(t, at.Equal(created.ScheduledAt))

	// 30 minutes later falls inside the agent's hour
	body["scheduleTime"] = at.Add(30 * time.Minute).Format(time.RFC3339)
	w = s.do(t, http.MethodPost, "/api/schedules", body, other)
	assert.Equal(t, http.StatusConflict, w.Code)
	var errResp model.ErrorResponse
	decode(t, w, &errResp)
	assert.Equal(t, "SLOT_UNAVAILABLE", errResp.Error)

	w = s.do(t, http.MethodGet, "/api/schedules/"+created.ID.String(), nil, other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/schedules", nil, client)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items []model.AppointmentDetail `json:"items"`
		Total int64                     `json:"total"`
	}
	decode(t, w, &page)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)

	w = s.do(t, http.MethodPost, "/api/schedules/"+created.ID.String()+"/cancel", nil, client)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// cancelled viewings free the slot
	w = s.do(t, http.MethodPost, "/api/schedules", body, other)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestScheduleHandler_Availability(t *testing.T) {
	s := newTestServer(t)
	agent := testutil.CreateUser(t, s.db, model.RoleAgent, "agent@homenest.test")
	client := testutil.CreateUser(t, s.db, model.RoleClient, "client@homenest.test")
	property := testutil.CreateProperty(t, s.db, agent.ID, "Hue")

	at := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Second)
	w := s.do(t, http.MethodPost, "/api/schedules", jsonBody{
		"propertyId":   property.ID,
		"agentId":      agent.ID,
		"scheduleTime": at.Format(time.RFC3339),
	}, client)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	check := func(when time.Time) bool {
		q := url.Values{}
		q.Set("agentId", agent.ID.String())
		q.Set("scheduleTime", when.Format(time.RFC3339))
		w := s.do(t, http.MethodGet, "/api/schedules/availability?"+q.Encode(), nil, client)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp model.SlotAvailabilityResponse
		decode(t, w, &resp)
		return resp.Available
	}

	assert.False(t, check(at))
	assert.False(t, check(at.Add(time.Hour)))
	assert.True(t, check(at.Add(time.Hour+time.Second)))

	w = s.do(t, http.MethodGet, "/api/schedules/availability?agentId=nope", nil, client)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandler_InvalidInput(t *testing.T) {
	s := newTestServer(t)
	client := testutil.CreateUser(t, s.db, model.RoleClient, "client@homenest.test")

	w := s.do(t, http.MethodPost, "/api/schedules", jsonBody{"notes": "missing everything"}, client)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errResp model.ErrorResponse
	decode(t, w, &errResp)
	assert.Equal(t, "INVALID_INPUT", errResp.Error)

	w = s.do(t, http.MethodGet, "/api/schedules/not-a-uuid", nil, client)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/schedules?status=pending", nil, client)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
