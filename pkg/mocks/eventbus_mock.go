// Package mocks provides mock implementations of core interfaces for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/docdeck/docdeck/pkg/eventbus"
	"github.com/docdeck/docdeck/pkg/events"
)

// MockEventBus is a mock implementation of the eventbus.EventBus interface.
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, key string, event eventbus.Event) error {
	args := m.Called(ctx, key, event)

	return args.Error(0)
}

func (m *MockEventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) {
	m.Called(eventType, handler)
}

func (m *MockEventBus) HandleSync(eventType events.EventType, handler eventbus.EventHandler) {
	m.Called(eventType, handler)
}

func (m *MockEventBus) Subscribe(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockEventBus) Drain(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockEventBus) Reset() error {
	args := m.Called()

	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()

	return args.Error(0)
}

func (m *MockEventBus) GenerateID() string {
	args := m.Called()

	return args.String(0)
}
