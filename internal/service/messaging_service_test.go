package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/repository"
	"github.com/homenest/homenest-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messagingFixture struct {
	svc      *MessagingService
	clock    *fakeClock
	events   *fakePublisher
	pushes   *fakeNotifier
	storage  *fakeStorage
	agent    *model.User
	client   *model.User
	property *model.Property
}

func newMessagingFixture(t *testing.T) *messagingFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &messagingFixture{
		clock:  newFakeClock(),
		events: &fakePublisher{},
		pushes:  &fakeNotifier{},
		storage: newFakeStorage(),
		agent:  testutil.CreateUser(t, db, model.RoleAgent, "agent@homenest.test"),
		client: testutil.CreateUser(t, db, model.RoleClient, "client@homenest.test"),
	}
	f.property = testutil.CreateProperty(t, db, f.agent.ID, "Hanoi")
	f.svc = NewMessagingService(
		repository.NewTransactor(db),
		repository.NewConversationRepository(db),
		repository.NewMessageRepository(db),
		repository.NewUserRepository(db),
		repository.NewPropertyRepository(db),
		f.storage,
		f.events,
		f.pushes,
	)
	f.svc.now = f.clock.Now
	return f
}

func TestMessagingService_GetOrCreateDirect(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetOrCreateDirect(ctx, f.client.ID, model.DirectConversationRequest{ReceiverID: f.client.ID})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = f.svc.GetOrCreateDirect(ctx, f.client.ID, model.DirectConversationRequest{ReceiverID: uuid.New()})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	conv, err := f.svc.GetOrCreateDirect(ctx, f.client.ID, model.DirectConversationRequest{
		ReceiverID: f.agent.ID,
		PropertyID: &f.property.ID,
	})
	require.NoError(t, err)
	assert.Len(t, conv.Members, 2)

	// the agent opening the same thread gets the existing one
	again, err := f.svc.GetOrCreateDirect(ctx, f.agent.ID, model.DirectConversationRequest{
		ReceiverID: f.client.ID,
		PropertyID: &f.property.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	general, err := f.svc.GetOrCreateDirect(ctx, f.client.ID, model.DirectConversationRequest{ReceiverID: f.agent.ID})
	require.NoError(t, err)
	assert.NotEqual(t, conv.ID, general.ID)
}

func TestMessagingService_SendAndRead(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.svc.GetOrCreateDirect(ctx, f.client.ID, model.DirectConversationRequest{ReceiverID: f.agent.ID})
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, uuid.New(), conv.ID, model.SendMessageRequest{Content: "hi"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.SendMessage(ctx, f.client.ID, conv.ID, model.SendMessageRequest{Content: "   "})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	var ids []uuid.UUID
	for _, text := range []string{"Is it still available?", "Can I visit Friday?"} {
		f.clock.Advance(time.Minute)
		msg, err := f.svc.SendMessage(ctx, f.client.ID, conv.ID, model.SendMessageRequest{Content: text})
		require.NoError(t, err)
		require.NotNil(t, msg.Sender)
		ids = append(ids, msg.ID)
	}

	require.Len(t, f.events.events, 2)
	assert.Equal(t, f.agent.ID, f.events.events[0].UserID)
	assert.Equal(t, model.WSEventNewMessage, f.events.events[0].Event.Type)
	require.Len(t, f.pushes.pushes, 2)
	assert.Equal(t, f.client.Name, f.pushes.pushes[0].Title)

	list, err := f.svc.GetConversations(ctx, f.agent.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.EqualValues(t, 2, list[0].UnreadCount)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "Can I visit Friday?", list[0].LastMessage.Content)

	mine, err := f.svc.GetConversations(ctx, f.client.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, mine[0].UnreadCount)

	msgs, err := f.svc.GetMessages(ctx, f.agent.ID, conv.ID, nil, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, ids[1], msgs[0].ID)

	older, err := f.svc.GetMessages(ctx, f.agent.ID, conv.ID, &ids[1], 10)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, ids[0], older[0].ID)

	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.MarkAsRead(ctx, f.agent.ID, conv.ID))
	list, err = f.svc.GetConversations(ctx, f.agent.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, list[0].UnreadCount)
	assert.Contains(t, f.events.types(), model.WSEventMessageRead)

	assert.ErrorIs(t, f.svc.MarkAsRead(ctx, uuid.New(), conv.ID), apperr.ErrForbidden)
}

func TestMessagingService_UploadAttachment(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.svc.GetOrCreateDirect(ctx, f.client.ID, model.DirectConversationRequest{ReceiverID: f.agent.ID})
	require.NoError(t, err)

	files := fileHeaders(t, map[string]string{"floorplan.pdf": "%PDF-1.4", "notes.exe": "MZ"})

	_, err = f.svc.UploadAttachment(ctx, uuid.New(), conv.ID, strings.NewReader("x"), files[0])
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.UploadAttachment(ctx, f.client.ID, conv.ID, strings.NewReader("MZ"), files[1])
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	att, err := f.svc.UploadAttachment(ctx, f.client.ID, conv.ID, strings.NewReader("%PDF-1.4"), files[0])
	require.NoError(t, err)
	assert.Equal(t, "floorplan.pdf", att.FileName)
	assert.Contains(t, att.URL, "attachments/"+conv.ID.String())

	msg, err := f.svc.SendMessage(ctx, f.client.ID, conv.ID, model.SendMessageRequest{FileURL: att.URL, FileName: att.FileName})
	require.NoError(t, err)
	assert.Equal(t, att.URL, msg.FileURL)
	assert.Equal(t, "Sent an attachment", f.pushes.pushes[0].Body)
}
