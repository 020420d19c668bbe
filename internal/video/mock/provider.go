package mock

import (
	"context"
	"sync"

	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// MockProvider satisfies models.VideoProvider for testing.
type MockProvider struct {
	Name_         string
	CreateJobFunc func(ctx context.Context, req models.VideoJobRequest) (string, error)
	GetStatusFunc func(ctx context.Context, jobID string) (models.VideoJobStatus, error)

	mu          sync.Mutex
	createCalls []models.VideoJobRequest
	statusCalls []string
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) CreateJob(ctx context.Context, req models.VideoJobRequest) (string, error) {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, req)
	m.mu.Unlock()

	if m.CreateJobFunc != nil {
		return m.CreateJobFunc(ctx, req)
	}
	return "mock-job", nil
}

func (m *MockProvider) GetStatus(ctx context.Context, jobID string) (models.VideoJobStatus, error) {
	m.mu.Lock()
	m.statusCalls = append(m.statusCalls, jobID)
	m.mu.Unlock()

	if m.GetStatusFunc != nil {
		return m.GetStatusFunc(ctx, jobID)
	}
	return models.VideoJobStatus{Status: models.VideoStatusProcessing, Progress: 10}, nil
}

// CreateCalls returns a copy of the requests passed to CreateJob.
func (m *MockProvider) CreateCalls() []models.VideoJobRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.VideoJobRequest(nil), m.createCalls...)
}

// StatusCalls returns how many times GetStatus was called.
func (m *MockProvider) StatusCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.statusCalls)
}

// NewMockProvider returns a MockProvider that accepts every job and reports it processing.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{Name_: name}
}

// NewScriptedProvider returns a MockProvider whose GetStatus walks through
// statuses in order, repeating the last one once exhausted.
func NewScriptedProvider(name, jobID string, statuses ...models.VideoJobStatus) *MockProvider {
	var (
		mu sync.Mutex
		i  int
	)
	return &MockProvider{
		Name_: name,
		CreateJobFunc: func(_ context.Context, _ models.VideoJobRequest) (string, error) {
			return jobID, nil
		},
		GetStatusFunc: func(_ context.Context, _ string) (models.VideoJobStatus, error) {
			mu.Lock()
			defer mu.Unlock()
			if len(statuses) == 0 {
				return models.VideoJobStatus{Status: models.VideoStatusProcessing}, nil
			}
			st := statuses[min(i, len(statuses)-1)]
			i++
			return st, nil
		},
	}
}

// NewFailingProvider returns a MockProvider whose calls all return err.
func NewFailingProvider(name string, err error) *MockProvider {
	return &MockProvider{
		Name_: name,
		CreateJobFunc: func(_ context.Context, _ models.VideoJobRequest) (string, error) {
			return "", err
		},
		GetStatusFunc: func(_ context.Context, _ string) (models.VideoJobStatus, error) {
			return models.VideoJobStatus{}, err
		},
	}
}

// Compile-time check that MockProvider implements VideoProvider.
var _ models.VideoProvider = (*MockProvider)(nil)
