package service

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"rentrush-backend/internal/logger"
)

type firebasePushService struct {
	client      *messaging.Client
	topicPrefix string
}

// NewFirebasePushService sends push notifications through Firebase Cloud
// Messaging. Every user's devices subscribe to the topic
// <topicPrefix><userID>.
func NewFirebasePushService(ctx context.Context, credentialsFile, topicPrefix string) (PushService, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}
	return &firebasePushService{client: client, topicPrefix: topicPrefix}, nil
}

func (s *firebasePushService) Push(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Topic: s.topicPrefix + userID.String(),
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	logger.ExternalServiceCall("fcm", "Send", "topic", msg.Topic)
	id, err := s.client.Send(ctx, msg)
	logger.ExternalServiceResult("fcm", "Send", err, "topic", msg.Topic, "messageID", id)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	return nil
}

// NoopPushService drops push notifications when FCM is not configured.
type NoopPushService struct{}

func (NoopPushService) Push(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	return nil
}
