package service_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/storage"
)

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, userID uuid.UUID, event domain.NotificationEvent) {
	m.Called(ctx, userID, event)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendEmail(ctx context.Context, to, toName, subject, plainText, htmlContent string) error {
	args := m.Called(ctx, to, toName, subject, plainText, htmlContent)
	return args.Error(0)
}

// MockPushService
type MockPushService struct {
	mock.Mock
}

func (m *MockPushService) Push(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	args := m.Called(ctx, userID, title, body, data)
	return args.Error(0)
}

// flakyStore fails uploads while failing is set.
type flakyStore struct {
	storage.DocumentStore
	failing atomic.Bool
}

func (f *flakyStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.failing.Load() {
		return errors.New("bucket unavailable")
	}
	return f.DocumentStore.Put(ctx, key, r, size, contentType)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
