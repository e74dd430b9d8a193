package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bookrag/backend/internal/infrastructure/config"
	"github.com/bookrag/backend/internal/infrastructure/llm"
	"github.com/bookrag/backend/internal/infrastructure/log"
)

// QuotaBusyMessage 配额耗尽时的固定回复
const QuotaBusyMessage = "⚠️ **System Busy (Quota Exceeded)**: The AI model is currently overloaded. Please try again in a few minutes."

// GenerationClient 文本生成客户端
type GenerationClient interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// 绑定状态
type bindState int

const (
	stateUnselected bindState = iota
	stateProbing
	stateBound
)

// FallbackController 生成模型回退控制器
// 启动时按顺序探测候选模型，第一个探测成功的模型绑定为进程生命周期内的
// 生成模型；全部失败时乐观绑定指定的回退模型，把失败留给每次请求去分类。
// 绑定后不再重新探测。
type FallbackController struct {
	client        GenerationClient
	candidates    []string
	fallbackModel string

	mu         sync.Mutex
	state      bindState
	boundModel string

	logger *slog.Logger
}

// NewFallbackController 创建回退控制器
func NewFallbackController(client GenerationClient, cfg *config.Config) *FallbackController {
	return &FallbackController{
		client:        client,
		candidates:    cfg.Gemini.CandidateModels,
		fallbackModel: cfg.Gemini.FallbackModel,
		logger:        log.NewModuleLogger("rag", "fallback"),
	}
}

// Bind 探测候选模型并绑定
// 返回绑定的模型名；重复调用直接返回已绑定的模型
func (f *FallbackController) Bind(ctx context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == stateBound {
		return f.boundModel
	}
	f.state = stateProbing

	f.logger.Info("Probing candidate models")
	for _, candidate := range f.candidates {
		if _, err := f.client.Generate(ctx, candidate, "Test"); err != nil {
			f.logger.Warn("Candidate model failed probe",
				"model", candidate,
				"error", err,
			)
			continue
		}

		f.boundModel = candidate
		f.state = stateBound
		f.logger.Info("Model bound",
			"model", candidate,
		)
		return f.boundModel
	}

	// 全部失败：乐观绑定回退模型，让运行时按请求处理失败
	f.logger.Warn("All candidate models failed probe, binding fallback model optimistically",
		"model", f.fallbackModel,
	)
	f.boundModel = f.fallbackModel
	f.state = stateBound
	return f.boundModel
}

// BoundModel 返回当前绑定的模型名（未绑定时为空）
func (f *FallbackController) BoundModel() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.boundModel
}

// Generate 用绑定的模型生成文本
// 生成失败不向上抛错，而是分类为用户可见的消息
func (f *FallbackController) Generate(ctx context.Context, prompt string) string {
	model := f.Bind(ctx)

	text, err := f.client.Generate(ctx, model, prompt)
	if err != nil {
		return f.classifyError(err, model)
	}
	return text
}

// classifyError 将生成失败分类为用户可见的消息
func (f *FallbackController) classifyError(err error, model string) string {
	var quotaErr *llm.QuotaError
	if errors.As(err, &quotaErr) {
		f.logger.Error("Quota exceeded",
			"model", model,
			"error", err,
		)
		return QuotaBusyMessage
	}

	var notFoundErr *llm.ModelNotFoundError
	if errors.As(err, &notFoundErr) {
		f.logger.Warn("Bound model not found",
			"model", model,
			"error", err,
		)
		return fmt.Sprintf("Gemini Error (Model Not Found): %v (Tried: %s)", err, model)
	}

	f.logger.Error("Generation failed",
		"model", model,
		"error", err,
	)
	return fmt.Sprintf("Gemini Error: %v", err)
}
