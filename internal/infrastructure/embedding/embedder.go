package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/bookrag/backend/internal/infrastructure/config"
)

// Embedder 文本向量化接口
type Embedder interface {
	// Embed 向量化单条文本
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch 向量化一批文本，结果与输入顺序一致
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension 返回向量维度
	Dimension() int
}

// NewEmbedder 根据配置创建向量化实现
func NewEmbedder(cfg *config.Config) (Embedder, error) {
	switch cfg.Embedding.Provider {
	case "local":
		return NewLocalEmbedder(cfg.Embedding.Dimension), nil
	case "gemini":
		return NewGeminiEmbedder(cfg.Gemini.BaseURL, cfg.Gemini.APIKey, cfg.Embedding.Model)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Embedding.Provider)
	}
}

// normalizeText 向量化前的文本规范化：换行替换为空格
func normalizeText(text string) string {
	return strings.ReplaceAll(text, "\n", " ")
}
