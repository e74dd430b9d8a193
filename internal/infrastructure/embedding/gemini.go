package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bookrag/backend/internal/infrastructure/log"
)

// GeminiEmbedder Gemini embedContent REST 客户端
type GeminiEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	logger     *slog.Logger
}

// embedContentRequest embedContent API 请求
type embedContentRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// embedContentResponse embedContent API 响应
type embedContentResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// batchEmbedContentsRequest batchEmbedContents API 请求
type batchEmbedContentsRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

// batchEmbedContentsResponse batchEmbedContents API 响应
type batchEmbedContentsResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

// NewGeminiEmbedder 创建 Gemini 向量化客户端
// 构造时用一次测试请求探测向量维度，探测失败视为配置错误
func NewGeminiEmbedder(baseURL, apiKey, model string) (*GeminiEmbedder, error) {
	e := &GeminiEmbedder{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.NewModuleLogger("embedding", "gemini"),
	}

	vector, err := e.Embed(context.Background(), "test")
	if err != nil {
		return nil, fmt.Errorf("failed to probe embedding dimension: %w", err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("embedding probe returned an empty vector")
	}
	e.dimension = len(vector)

	e.logger.Info("Gemini embedder ready",
		"model", model,
		"dimension", e.dimension,
	)

	return e, nil
}

// Embed 向量化单条文本
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embedContentRequest{
		Model:   e.model,
		Content: content{Parts: []part{{Text: normalizeText(text)}}},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/%s:embedContent", e.baseURL, e.model)
	body, err := e.post(ctx, url, jsonData)
	if err != nil {
		return nil, err
	}

	var embedResp embedContentResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return embedResp.Embedding.Values, nil
}

// EmbedBatch 向量化一批文本
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	requests := make([]embedContentRequest, len(texts))
	for i, text := range texts {
		requests[i] = embedContentRequest{
			Model:   e.model,
			Content: content{Parts: []part{{Text: normalizeText(text)}}},
		}
	}

	jsonData, err := json.Marshal(batchEmbedContentsRequest{Requests: requests})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/%s:batchEmbedContents", e.baseURL, e.model)
	body, err := e.post(ctx, url, jsonData)
	if err != nil {
		return nil, err
	}

	var batchResp batchEmbedContentsResponse
	if err := json.Unmarshal(body, &batchResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(batchResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d",
			len(batchResp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range batchResp.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Dimension 返回向量维度
func (e *GeminiEmbedder) Dimension() int {
	return e.dimension
}

// post 发送请求并读取响应体
func (e *GeminiEmbedder) post(ctx context.Context, url string, jsonData []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		e.logger.Error("Embedding API returned error",
			"status_code", resp.StatusCode,
			"response_body", string(body),
		)
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// 编译时检查接口实现
var _ Embedder = (*GeminiEmbedder)(nil)
