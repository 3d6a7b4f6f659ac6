package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/cloo-solutions/docgpt/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSessionEvictor is a mock implementation of SessionEvictor
type MockSessionEvictor struct {
	mock.Mock
}

func (m *MockSessionEvictor) EvictIdle(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker("test worker", mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	worker.Stop()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(errors.New("transient"))

	worker := NewWorker("test worker", mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	// Errors are logged and do not stop the loop.
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

func TestSessionJanitor_ProcessJobs(t *testing.T) {
	mockEvictor := new(MockSessionEvictor)
	mockEvictor.On("EvictIdle", mock.Anything).Return(3, nil).Once()
	mockEvictor.On("EvictIdle", mock.Anything).Return(0, context.Canceled).Once()

	janitor := NewSessionJanitor(mockEvictor)

	assert.NoError(t, janitor.ProcessJobs(context.Background()))
	assert.ErrorIs(t, janitor.ProcessJobs(context.Background()), context.Canceled)
	mockEvictor.AssertExpectations(t)
}

func TestSessionJanitor_EvictsFromManager(t *testing.T) {
	manager := service.NewSessionManager(domain.ProfileDocument, time.Nanosecond)
	manager.Create()
	manager.Create()
	time.Sleep(time.Millisecond)

	worker := NewWorker("session janitor", NewSessionJanitor(manager), 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Start(ctx)

	require.Eventually(t, func() bool { return manager.Len() == 0 }, time.Second, 10*time.Millisecond)
	worker.Stop()
}
