package service

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/logger"
	"rentrush-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, page, pageSize int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, userID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, userID)
}

// dispatchTimeout bounds one fan-out once it is detached from the request.
const dispatchTimeout = 30 * time.Second

// FanoutNotifier writes every event to the user's inbox and forwards it
// by e-mail and push.
type FanoutNotifier struct {
	noteRepo repository.NotificationRepository
	userRepo repository.UserRepository
	emailSvc EmailService
	pushSvc  PushService

	wg sync.WaitGroup
}

func NewFanoutNotifier(noteRepo repository.NotificationRepository, userRepo repository.UserRepository, emailSvc EmailService, pushSvc PushService) *FanoutNotifier {
	if emailSvc == nil {
		emailSvc = NoopEmailService{}
	}
	if pushSvc == nil {
		pushSvc = NoopPushService{}
	}
	return &FanoutNotifier{
		noteRepo: noteRepo,
		userRepo: userRepo,
		emailSvc: emailSvc,
		pushSvc:  pushSvc,
	}
}

// Notify dispatches in the background on a context that survives the
// request.
func (n *FanoutNotifier) Notify(ctx context.Context, userID uuid.UUID, event domain.NotificationEvent) {
	detached := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(detached, dispatchTimeout)
		defer cancel()
		_ = n.Dispatch(ctx, userID, event)
	}()
}

// Wait blocks until every dispatched notification has finished.
func (n *FanoutNotifier) Wait() {
	n.wg.Wait()
}

// Dispatch delivers event on all channels and returns the first failure.
// Every channel is attempted regardless of the others.
func (n *FanoutNotifier) Dispatch(ctx context.Context, userID uuid.UUID, event domain.NotificationEvent) error {
	attrs := map[string]string{"type": string(event.Type)}
	for k, v := range event.Attributes {
		attrs[k] = v
	}

	var g errgroup.Group

	g.Go(func() error {
		err := n.noteRepo.Create(ctx, &domain.Notification{
			UserID:     userID,
			Title:      event.Title,
			Message:    event.Message,
			Attributes: attrs,
		})
		if err != nil {
			logger.Warn("Failed to store notification", "userID", userID, "type", event.Type, "error", err)
		}
		return err
	})

	g.Go(func() error {
		user, err := n.userRepo.GetByID(ctx, userID)
		if err != nil {
			logger.Warn("Failed to look up notification recipient", "userID", userID, "error", err)
			return err
		}
		body := fmt.Sprintf("<p>Hello %s,</p><p>%s</p><p>The RentRush Team</p>",
			html.EscapeString(user.Name), html.EscapeString(event.Message))
		err = n.emailSvc.SendEmail(ctx, user.Email, user.Name, event.Title, event.Message, body)
		if err != nil {
			logger.Warn("Failed to send notification email", "userID", userID, "type", event.Type, "error", err)
		}
		return err
	})

	g.Go(func() error {
		err := n.pushSvc.Push(ctx, userID, event.Title, event.Message, attrs)
		if err != nil {
			logger.Warn("Failed to push notification", "userID", userID, "type", event.Type, "error", err)
		}
		return err
	})

	return g.Wait()
}
