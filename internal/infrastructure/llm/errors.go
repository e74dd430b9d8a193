package llm

import "fmt"

// QuotaError 配额耗尽（HTTP 429）
type QuotaError struct {
	Model string
	Body  string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded for model %s: %s", e.Model, e.Body)
}

// ModelNotFoundError 模型不存在（HTTP 404）
type ModelNotFoundError struct {
	Model string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model not found: %s", e.Model)
}

// APIError 其他非 200 响应
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API returned status %d: %s", e.StatusCode, e.Body)
}
