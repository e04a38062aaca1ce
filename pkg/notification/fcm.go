package notification

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/homenest/homenest-api/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// TokenStore resolves and prunes device push tokens
type TokenStore interface {
	GetDeviceTokens(ctx context.Context, userIDs []uuid.UUID) ([]string, error)
	RemoveDeviceTokens(ctx context.Context, tokens []string) error
}

// Push is a single notification addressed to one or more members
type Push struct {
	Title string
	Body  string
	Data  map[string]string
}

// Notifier delivers push notifications. A nil *FCMNotifier is a valid no-op.
type Notifier interface {
	Notify(ctx context.Context, userIDs []uuid.UUID, push Push) error
}

// FCMNotifier sends pushes through Firebase Cloud Messaging
type FCMNotifier struct {
	client *messaging.Client
	tokens TokenStore
}

// NewFCMNotifier returns nil when credentials are missing or Firebase cannot be initialized,
// leaving push disabled without blocking startup
func NewFCMNotifier(ctx context.Context, credentialsFile string, tokens TokenStore) *FCMNotifier {
	if credentialsFile == "" {
		logger.Warn(ctx, "Firebase credentials not provided, push notifications disabled")
		return nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		logger.Warn(ctx, "Failed to initialize Firebase app, push notifications disabled", zap.Error(err))
		return nil
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		logger.Warn(ctx, "Failed to get messaging client, push notifications disabled", zap.Error(err))
		return nil
	}

	logger.Info(ctx, "Firebase FCM initialized")
	return &FCMNotifier{client: client, tokens: tokens}
}

// Notify fans the push out to every registered device of the users
func (n *FCMNotifier) Notify(ctx context.Context, userIDs []uuid.UUID, push Push) error {
	if n == nil || n.client == nil {
		return nil
	}

	tokens, err := n.tokens.GetDeviceTokens(ctx, userIDs)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	br, err := n.client.SendEachForMulticast(ctx, buildMulticast(tokens, push))
	if err != nil {
		return fmt.Errorf("error sending multicast message: %w", err)
	}

	if br.FailureCount > 0 {
		var stale []string
		for idx, resp := range br.Responses {
			if resp.Success {
				continue
			}
			if messaging.IsUnregistered(resp.Error) || messaging.IsInvalidArgument(resp.Error) {
				stale = append(stale, tokens[idx])
				continue
			}
			logger.Warn(ctx, "FCM delivery failed", zap.Error(resp.Error))
		}
		if len(stale) > 0 {
			if err := n.tokens.RemoveDeviceTokens(ctx, stale); err != nil {
				logger.Warn(ctx, "Failed to prune stale FCM tokens", zap.Error(err))
			}
		}
	}

	return nil
}

func buildMulticast(tokens []string, push Push) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: push.Title,
			Body:  push.Body,
		},
		Data: push.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ClickAction: "FLUTTER_NOTIFICATION_CLICK",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
}
