package notification

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNilNotifierIsNoop(t *testing.T) {
	var n *FCMNotifier
	assert.NoError(t, n.Notify(context.Background(), []uuid.UUID{uuid.New()}, Push{Title: "x"}))
}

func TestMissingCredentialsDisablesPush(t *testing.T) {
	assert.Nil(t, NewFCMNotifier(context.Background(), "", nil))
}

func TestBuildMulticast(t *testing.T) {
	msg := buildMulticast([]string{"t1", "t2"}, Push{
		Title: "Viewing booked",
		Body:  "Riverside apartment",
		Data:  map[string]string{"type": "appointment_created"},
	})

	assert.Equal(t, []string{"t1", "t2"}, msg.Tokens)
	assert.Equal(t, "Viewing booked", msg.Notification.Title)
	assert.Equal(t, "appointment_created", msg.Data["type"])
	assert.Equal(t, "high", msg.Android.Priority)
	assert.Equal(t, "default", msg.APNS.Payload.Aps.Sound)
}
