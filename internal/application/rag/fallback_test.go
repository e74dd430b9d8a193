package rag

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookrag/backend/internal/infrastructure/config"
	"github.com/bookrag/backend/internal/infrastructure/llm"
)

// stubGenClient 可编程的生成客户端
type stubGenClient struct {
	// failModels 中的模型所有请求都返回对应错误
	failModels map[string]error
	// generateErr 非探测请求（prompt != "Test"）的统一错误
	generateErr error
	reply       string
	calls       []string
}

func (s *stubGenClient) Generate(_ context.Context, model, prompt string) (string, error) {
	s.calls = append(s.calls, model)
	if err, ok := s.failModels[model]; ok {
		return "", err
	}
	if prompt != "Test" && s.generateErr != nil {
		return "", s.generateErr
	}
	return s.reply, nil
}

func fallbackConfig() *config.Config {
	return &config.Config{
		Gemini: config.GeminiConfig{
			CandidateModels: []string{"models/one", "models/two", "models/three"},
			FallbackModel:   "models/last-resort",
		},
	}
}

func TestFallbackController_BindFirstWorkingCandidate(t *testing.T) {
	client := &stubGenClient{
		failModels: map[string]error{
			"models/one": fmt.Errorf("boom"),
		},
		reply: "ok",
	}
	controller := NewFallbackController(client, fallbackConfig())

	model := controller.Bind(context.Background())
	assert.Equal(t, "models/two", model)
	assert.Equal(t, "models/two", controller.BoundModel())

	// 绑定后不再重新探测
	callsAfterBind := len(client.calls)
	assert.Equal(t, "models/two", controller.Bind(context.Background()))
	assert.Equal(t, callsAfterBind, len(client.calls))
}

func TestFallbackController_AllCandidatesFailBindsFallback(t *testing.T) {
	client := &stubGenClient{
		failModels: map[string]error{
			"models/one":   fmt.Errorf("boom"),
			"models/two":   fmt.Errorf("boom"),
			"models/three": fmt.Errorf("boom"),
		},
	}
	controller := NewFallbackController(client, fallbackConfig())

	assert.Equal(t, "models/last-resort", controller.Bind(context.Background()))
}

func TestFallbackController_GenerateSuccess(t *testing.T) {
	client := &stubGenClient{reply: "the answer"}
	controller := NewFallbackController(client, fallbackConfig())

	assert.Equal(t, "the answer", controller.Generate(context.Background(), "some prompt"))
}

func TestFallbackController_GenerateQuotaExceeded(t *testing.T) {
	client := &stubGenClient{
		reply:       "ok",
		generateErr: &llm.QuotaError{Model: "models/one", Body: "quota"},
	}
	controller := NewFallbackController(client, fallbackConfig())

	assert.Equal(t, QuotaBusyMessage, controller.Generate(context.Background(), "some prompt"))
}

func TestFallbackController_GenerateModelNotFound(t *testing.T) {
	notFound := &llm.ModelNotFoundError{Model: "models/one"}
	client := &stubGenClient{
		reply:       "ok",
		generateErr: notFound,
	}
	controller := NewFallbackController(client, fallbackConfig())

	got := controller.Generate(context.Background(), "some prompt")
	require.Contains(t, got, "Gemini Error (Model Not Found):")
	assert.Contains(t, got, "(Tried: models/one)")
}

func TestFallbackController_GenerateGenericError(t *testing.T) {
	client := &stubGenClient{
		reply:       "ok",
		generateErr: fmt.Errorf("connection reset"),
	}
	controller := NewFallbackController(client, fallbackConfig())

	assert.Equal(t, "Gemini Error: connection reset", controller.Generate(context.Background(), "some prompt"))
}
