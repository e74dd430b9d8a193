package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	appRAG "github.com/bookrag/backend/internal/application/rag"
	domainRAG "github.com/bookrag/backend/internal/domain/rag"
	"github.com/bookrag/backend/internal/infrastructure/log"
)

// BookHandler 书籍问答处理器
type BookHandler struct {
	service *appRAG.Service
	logger  *slog.Logger
}

// NewBookHandler 创建书籍问答处理器
func NewBookHandler(service *appRAG.Service) *BookHandler {
	return &BookHandler{
		service: service,
		logger:  log.NewModuleLogger("http", "book_handler"),
	}
}

// EmbedBookRequest 摄取请求
type EmbedBookRequest struct {
	ForceRecreate bool `json:"force_recreate"`
}

// EmbedBook 触发书籍摄取
// POST /api/v1/embed-book
func (h *BookHandler) EmbedBook(c *gin.Context) {
	var req EmbedBookRequest
	// body 可为空，保持兼容
	_ = c.ShouldBindJSON(&req)

	if err := h.service.Ingest(c.Request.Context(), req.ForceRecreate); err != nil {
		h.logger.Error("Ingestion failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to embed book content: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Book content successfully embedded and stored in Qdrant.",
	})
}

// QueryRequest 问答请求
type QueryRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

// Query 书籍问答
// POST /api/v1/query
func (h *BookHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer := h.service.Query(c.Request.Context(), req.Query, req.Limit, "")
	c.JSON(http.StatusOK, gin.H{
		"query":  req.Query,
		"answer": answer,
	})
}

// QuerySelectedRequest 选中段落问答请求
type QuerySelectedRequest struct {
	Query           string `json:"query" binding:"required"`
	SelectedPassage string `json:"selected_passage" binding:"required"`
}

// QuerySelected 针对选中段落问答
// POST /api/v1/query-selected
func (h *BookHandler) QuerySelected(c *gin.Context) {
	var req QuerySelectedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer := h.service.Query(c.Request.Context(), req.Query, 0, req.SelectedPassage)
	c.JSON(http.StatusOK, gin.H{
		"query":            req.Query,
		"selected_passage": req.SelectedPassage,
		"answer":           answer,
	})
}

// ChatRequest 对话请求
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
}

// Chat 多轮对话
// POST /api/v1/chat
func (h *BookHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessions := h.service.Sessions()
	sessionID := sessions.GetOrCreate(req.SessionID)

	sessions.Append(sessionID, domainRAG.ChatMessage{
		Role:    domainRAG.RoleUser,
		Content: req.Message,
	})

	response := h.service.Chat(c.Request.Context(), req.Message, sessions.History(sessionID), 0)

	sessions.Append(sessionID, domainRAG.ChatMessage{
		Role:    domainRAG.RoleAssistant,
		Content: response,
	})

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"response":   response,
	})
}

// TranslateRequest 翻译请求
type TranslateRequest struct {
	Text           string `json:"text" binding:"required"`
	TargetLanguage string `json:"target_language"`
}

// Translate 翻译
// POST /api/v1/translate
func (h *BookHandler) Translate(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.TargetLanguage == "" {
		req.TargetLanguage = "Urdu"
	}

	translation := h.service.Translate(c.Request.Context(), req.Text, req.TargetLanguage)
	c.JSON(http.StatusOK, gin.H{
		"original_text":   req.Text,
		"translated_text": translation,
		"target_language": req.TargetLanguage,
	})
}
