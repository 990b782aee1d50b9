package mocks

import (
	"context"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockTrigger is a mock implementation of workflow.Trigger interface.
type MockTrigger struct {
	mock.Mock
}

func (m *MockTrigger) Trigger(ctx context.Context, event models.TriggerEvent, record models.Record) {
	m.Called(ctx, event, record)
}
