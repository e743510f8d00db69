package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/repository/memory"
	"rentrush-backend/internal/service"
)

func TestFanoutNotifier_Dispatch(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	event := domain.NotificationEvent{
		Type:       domain.NotificationBookingCreated,
		Title:      "New Booking",
		Message:    "Toyota Corolla <White> was booked",
		Attributes: map[string]string{"booking_id": "b-1"},
	}

	t.Run("Success", func(t *testing.T) {
		store := memory.NewStore()
		store.AddUser(domain.User{ID: userID, Name: "Motor Hub", Email: "hub@example.com", Role: domain.RoleShowroom})

		emailSvc := new(MockEmailService)
		pushSvc := new(MockPushService)
		emailSvc.On("SendEmail", mock.Anything, "hub@example.com", "Motor Hub", "New Booking", event.Message,
			mock.MatchedBy(func(html string) bool { return strings.Contains(html, "&lt;White&gt;") })).Return(nil)
		pushSvc.On("Push", mock.Anything, userID, "New Booking", event.Message, mock.Anything).Return(nil)

		notifier := service.NewFanoutNotifier(store.Notifications(), store.Users(), emailSvc, pushSvc)
		require.NoError(t, notifier.Dispatch(ctx, userID, event))

		notes, total, err := store.Notifications().List(ctx, userID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		assert.Equal(t, "BOOKING_CREATED", notes[0].Attributes["type"])
		assert.Equal(t, "b-1", notes[0].Attributes["booking_id"])
		emailSvc.AssertExpectations(t)
		pushSvc.AssertExpectations(t)
	})

	t.Run("Channel failure keeps the inbox entry", func(t *testing.T) {
		store := memory.NewStore()
		store.AddUser(domain.User{ID: userID, Name: "Motor Hub", Email: "hub@example.com", Role: domain.RoleShowroom})

		emailSvc := new(MockEmailService)
		pushSvc := new(MockPushService)
		emailSvc.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		pushSvc.On("Push", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("fcm down"))

		notifier := service.NewFanoutNotifier(store.Notifications(), store.Users(), emailSvc, pushSvc)
		err := notifier.Dispatch(ctx, userID, event)
		assert.Error(t, err)

		_, total, err := store.Notifications().List(ctx, userID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		emailSvc.AssertExpectations(t)
	})

	t.Run("Notify runs in the background", func(t *testing.T) {
		store := memory.NewStore()
		notifier := service.NewFanoutNotifier(store.Notifications(), store.Users(), nil, nil)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		notifier.Notify(cancelled, userID, event)
		notifier.Wait()

		_, total, err := store.Notifications().List(ctx, userID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(1), total, "a cancelled request still delivers")
	})
}

func TestNotificationService(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Notifications().Create(ctx, &domain.Notification{UserID: userID, Title: "Booking Updated"}))
	}
	svc := service.NewNotificationService(store.Notifications())

	notes, total, err := svc.GetNotifications(ctx, userID, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(3), total)
	assert.Len(t, notes, 2)

	require.NoError(t, svc.MarkAsRead(ctx, userID, notes[0].ID))
	err = svc.MarkAsRead(ctx, uuid.New(), notes[1].ID)
	assert.Error(t, err, "only the recipient may mark it read")
}
