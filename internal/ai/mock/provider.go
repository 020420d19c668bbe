package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/kiranshivaraju/contentdesk/internal/ai"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// MockGenerator satisfies models.TextGenerator for testing.
type MockGenerator struct {
	Name_        string
	GenerateFunc func(ctx context.Context, req models.CompletionRequest) (string, error)

	calls atomic.Int64
}

func (m *MockGenerator) Name() string { return m.Name_ }

func (m *MockGenerator) Generate(ctx context.Context, req models.CompletionRequest) (string, error) {
	m.calls.Add(1)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "", nil
}

// Calls returns how many times Generate was called.
func (m *MockGenerator) Calls() int {
	return int(m.calls.Load())
}

// NewMockGenerator returns a MockGenerator that answers each prompt kind with
// plausible canned output, in Spanish when the prompt asks for it.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		Name_: "mock",
		GenerateFunc: func(_ context.Context, req models.CompletionRequest) (string, error) {
			spanish := strings.Contains(req.Prompt, "Spanish")
			p := req.Prompt
			switch {
			case strings.Contains(p, "topic ideas"):
				return "1. What happens if you die without a will in California?\n2. Five trust mistakes\n\n3. When to name a guardian", nil
			case strings.Contains(p, "hashtags"):
				if spanish {
					return "#Abogado #PlanificacionPatrimonial #Abogado", nil
				}
				return "#LawFirm #EstatePlanning #Glendale #LawFirm", nil
			case strings.Contains(p, "captions"):
				if spanish {
					return "1. Proteja a su familia.\n2. Llámenos hoy.", nil
				}
				return "1. Protect your family today.\n2. Call us for a consultation.", nil
			case strings.Contains(p, "video script"):
				if spanish {
					return "Guion de prueba", nil
				}
				return "Mock script", nil
			default:
				if spanish {
					return "Artículo de prueba", nil
				}
				return "Mock article", nil
			}
		},
	}
}

// NewFailingGenerator returns a MockGenerator that always returns the given error.
func NewFailingGenerator(err error) *MockGenerator {
	return &MockGenerator{
		Name_: "mock-failing",
		GenerateFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutGenerator returns a MockGenerator that blocks until context is cancelled.
func NewTimeoutGenerator() *MockGenerator {
	return &MockGenerator{
		Name_: "mock-timeout",
		GenerateFunc: func(ctx context.Context, _ models.CompletionRequest) (string, error) {
			<-ctx.Done()
			return "", ai.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockGenerator implements TextGenerator.
var _ models.TextGenerator = (*MockGenerator)(nil)
