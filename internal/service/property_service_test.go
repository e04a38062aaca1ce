package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/repository"
	"github.com/homenest/homenest-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPropertyService(t *testing.T) (*PropertyService, *fakeStorage, *model.User, *model.User) {
	t.Helper()
	db := testutil.NewTestDB(t)
	store := newFakeStorage()
	svc := NewPropertyService(repository.NewPropertyRepository(db), store)
	svc.now = newFakeClock().Now
	agent := testutil.CreateUser(t, db, model.RoleAgent, "agent@homenest.test")
	client := testutil.CreateUser(t, db, model.RoleClient, "client@homenest.test")
	return svc, store, agent, client
}

func sampleListing() model.CreatePropertyRequest {
	return model.CreatePropertyRequest{
		Title:        "Sunny condo",
		PropertyType: model.PropertyTypeCondo,
		ListingType:  model.ListingTypeSale,
		Price:        180000,
		Address:      "8 Harbor View",
		City:         "Da Nang",
		Bedrooms:     2,
		Bathrooms:    2,
		AreaSqm:      85,
	}
}

func TestPropertyService_CreateUpdateDelete(t *testing.T) {
	svc, _, agent, client := newPropertyService(t)
	ctx := context.Background()
	asAgent := Actor{ID: agent.ID, Role: model.RoleAgent}

	_, err := svc.Create(ctx, Actor{ID: client.ID, Role: model.RoleClient}, sampleListing())
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	p, err := svc.Create(ctx, asAgent, sampleListing())
	require.NoError(t, err)
	assert.Equal(t, agent.ID, p.AgentID)
	assert.Equal(t, model.PropertyStatusAvailable, p.Status)

	price := 175000.0
	status := model.PropertyStatusPending
	_, err = svc.Update(ctx, Actor{ID: uuid.New(), Role: model.RoleAgent}, p.ID, model.UpdatePropertyRequest{Price: &price})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err := svc.Update(ctx, asAgent, p.ID, model.UpdatePropertyRequest{Price: &price, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, price, updated.Price)
	assert.Equal(t, status, updated.Status)
	assert.Equal(t, "Sunny condo", updated.Title)

	require.NoError(t, svc.Delete(ctx, Actor{ID: uuid.New(), Role: model.RoleAdmin}, p.ID))
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPropertyService_Search(t *testing.T) {
	svc, _, agent, _ := newPropertyService(t)
	ctx := context.Background()
	asAgent := Actor{ID: agent.ID, Role: model.RoleAgent}

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, asAgent, sampleListing())
		require.NoError(t, err)
	}

	page, err := svc.Search(ctx, model.PropertySearchRequest{City: " da nang ", Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Items, 2)

	_, err = svc.Search(ctx, model.PropertySearchRequest{MinPrice: 10, MaxPrice: 5})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	page, err = svc.Search(ctx, model.PropertySearchRequest{AgentID: uuid.NewString()})
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.Total)
	assert.Equal(t, 20, page.PageSize)
}

func TestPropertyService_Media(t *testing.T) {
	svc, store, agent, client := newPropertyService(t)
	ctx := context.Background()
	asAgent := Actor{ID: agent.ID, Role: model.RoleAgent}
	p, err := svc.Create(ctx, asAgent, sampleListing())
	require.NoError(t, err)

	_, err = svc.UploadMedia(ctx, Actor{ID: client.ID, Role: model.RoleClient}, p.ID,
		fileHeaders(t, map[string]string{"front.jpg": "jpeg"}))
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.UploadMedia(ctx, asAgent, p.ID, fileHeaders(t, map[string]string{"notes.txt": "hello"}))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	media, err := svc.UploadMedia(ctx, asAgent, p.ID, fileHeaders(t, map[string]string{
		"front.jpg": "jpeg-bytes",
		"tour.mp4":  "mp4-bytes",
	}))
	require.NoError(t, err)
	require.Len(t, media, 2)
	assert.Equal(t, model.MediaTypeImage, media[0].Type)
	assert.Equal(t, model.MediaTypeVideo, media[1].Type)
	assert.Equal(t, 0, media[0].Position)
	assert.Equal(t, 1, media[1].Position)
	assert.Contains(t, media[0].ObjectKey, "properties/"+p.ID.String()+"/")
	assert.Len(t, store.objects, 2)

	more, err := svc.UploadMedia(ctx, asAgent, p.ID, fileHeaders(t, map[string]string{"kitchen.webp": "webp"}))
	require.NoError(t, err)
	assert.Equal(t, 2, more[0].Position)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Media, 3)
	assert.Equal(t, "front.jpg", got.Media[0].FileName)

	require.NoError(t, svc.DeleteMedia(ctx, asAgent, p.ID, media[0].ID))
	assert.Contains(t, store.deleted, media[0].ObjectKey)
	assert.ErrorIs(t, svc.DeleteMedia(ctx, asAgent, p.ID, media[0].ID), apperr.ErrNotFound)
}

func TestPropertyService_FailedUploadCleansUp(t *testing.T) {
	svc, store, agent, _ := newPropertyService(t)
	ctx := context.Background()
	asAgent := Actor{ID: agent.ID, Role: model.RoleAgent}
	p, err := svc.Create(ctx, asAgent, sampleListing())
	require.NoError(t, err)

	store.failOn = "b.png"
	_, err = svc.UploadMedia(ctx, asAgent, p.ID, fileHeaders(t, map[string]string{"a.jpg": "1", "b.png": "2"}))
	require.Error(t, err)
	assert.Empty(t, store.objects)
	assert.Len(t, store.deleted, 1)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Media)
}
