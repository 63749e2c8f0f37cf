package services

import (
	"github.com/stretchr/testify/mock"
)

// MockBroadcaster is a mock for the Broadcaster interface
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) Broadcast(messageType string, data interface{}) {
	m.Called(messageType, data)
}
