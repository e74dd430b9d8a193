package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	domainRAG "github.com/bookrag/backend/internal/domain/rag"
	"github.com/bookrag/backend/internal/infrastructure/config"
	"github.com/bookrag/backend/internal/infrastructure/log"
)

// VectorSearcher 向量库操作接口
type VectorSearcher interface {
	EnsureCollection(ctx context.Context, forceRecreate bool) error
	Upsert(ctx context.Context, chunks []domainRAG.Chunk) error
	Search(ctx context.Context, text string, limit int) []domainRAG.SearchHit
	Count(ctx context.Context) (uint64, error)
}

// 问候和身份问题触发词
var (
	greetingTriggers = []string{"hi", "hello", "hey"}
	identityTriggers = []string{"who are you", "what are you"}
)

// Service RAG 管线服务
// 组合加载、切分、检索、Prompt 构造和生成回退，
// 对外提供摄取、问答、对话和翻译操作
type Service struct {
	loader   *DocumentLoader
	chunker  *Chunker
	store    VectorSearcher
	prompts  *PromptBuilder
	fallback *FallbackController
	sessions *SessionStore

	queryThreshold float32
	chatThreshold  float32
	defaultLimit   int

	// ingestMu 串行化摄取：API 触发和监听器触发共用
	ingestMu sync.Mutex

	logger *slog.Logger
}

// NewService 创建管线服务
func NewService(
	cfg *config.Config,
	loader *DocumentLoader,
	chunker *Chunker,
	store VectorSearcher,
	prompts *PromptBuilder,
	fallback *FallbackController,
	sessions *SessionStore,
) *Service {
	return &Service{
		loader:         loader,
		chunker:        chunker,
		store:          store,
		prompts:        prompts,
		fallback:       fallback,
		sessions:       sessions,
		queryThreshold: cfg.Retrieval.QueryScoreThreshold,
		chatThreshold:  cfg.Retrieval.ChatScoreThreshold,
		defaultLimit:   cfg.Retrieval.DefaultLimit,
		logger:         log.NewModuleLogger("rag", "service"),
	}
}

// Sessions 返回会话存储
func (s *Service) Sessions() *SessionStore {
	return s.sessions
}

// BindModel 绑定生成模型（启动时调用）
func (s *Service) BindModel(ctx context.Context) string {
	return s.fallback.Bind(ctx)
}

// Ingest 全量摄取书籍文档
// 加载 -> 确保集合 -> 切分 -> 向量化写入；任何一步失败中止整轮，
// 已写入的批次不回滚
func (s *Service) Ingest(ctx context.Context, forceRecreate bool) error {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	s.logger.Info("Starting ingestion",
		"force_recreate", forceRecreate,
	)

	documents, err := s.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	if len(documents) == 0 {
		return domainRAG.ErrNoDocuments
	}

	if err := s.store.EnsureCollection(ctx, forceRecreate); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	chunks := s.chunker.SplitAll(documents)
	s.logger.Info("Documents split",
		"document_count", len(documents),
		"chunk_count", len(chunks),
	)

	if err := s.store.Upsert(ctx, chunks); err != nil {
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}

	s.logger.Info("Ingestion completed",
		"chunk_count", len(chunks),
	)
	return nil
}

// EnsureIngested 幂等摄取
// 集合已有数据则跳过；集合缺失、为空或计数失败都视为需要摄取
func (s *Service) EnsureIngested(ctx context.Context) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn("Could not determine point count, assuming ingestion is needed",
			"error", err,
		)
		return s.Ingest(ctx, false)
	}

	if count > 0 {
		s.logger.Info("Collection already populated, skipping ingestion",
			"point_count", count,
		)
		return nil
	}

	s.logger.Info("Collection is empty, ingesting documents")
	return s.Ingest(ctx, false)
}

// Query 严格问答
// selectedPassage 非空时跳过检索和过滤，直接作为唯一上下文
func (s *Service) Query(ctx context.Context, text string, limit int, selectedPassage string) string {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	if selectedPassage != "" {
		s.logger.Info("Querying with selected passage only")
		contextChunks := []domainRAG.SearchHit{
			{Content: selectedPassage, Source: "selected_passage"},
		}
		prompt := s.prompts.BuildQueryPrompt(text, contextChunks)
		return s.fallback.Generate(ctx, prompt)
	}

	hits := s.store.Search(ctx, text, limit)
	if len(hits) == 0 {
		return NoResultsMessage
	}

	gated := GateHits(hits, s.queryThreshold)
	if len(gated) == 0 {
		s.logger.Info("All hits below query threshold",
			"threshold", s.queryThreshold,
			"top_score", hits[0].Score,
		)
		return RefusalMessage
	}

	prompt := s.prompts.BuildQueryPrompt(text, gated)
	return s.fallback.Generate(ctx, prompt)
}

// Chat 对话
// 问候/身份问题直接返回固定介绍，不走检索
func (s *Service) Chat(ctx context.Context, text string, history []domainRAG.ChatMessage, limit int) string {
	if isGreeting(text) {
		return IntroductionMessage
	}

	if limit <= 0 {
		limit = s.defaultLimit
	}

	hits := s.store.Search(ctx, text, limit)
	gated := GateHits(hits, s.chatThreshold)
	if len(gated) == 0 {
		var topScore float32
		if len(hits) > 0 {
			topScore = hits[0].Score
		}
		s.logger.Info("No hits passed chat threshold",
			"threshold", s.chatThreshold,
			"top_score", topScore,
		)
		return ChatRefusalMessage
	}

	prompt := s.prompts.BuildChatPrompt(text, history, gated)
	return s.fallback.Generate(ctx, prompt)
}

// Translate 翻译（无检索）
func (s *Service) Translate(ctx context.Context, text, targetLanguage string) string {
	if targetLanguage == "" {
		targetLanguage = "Urdu"
	}
	prompt := s.prompts.BuildTranslatePrompt(text, targetLanguage)
	return s.fallback.Generate(ctx, prompt)
}

// Search 检索并按问答阈值过滤（MCP 工具用）
func (s *Service) Search(ctx context.Context, query string, limit int) []domainRAG.SearchHit {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	hits := s.store.Search(ctx, query, limit)
	return GateHits(hits, s.queryThreshold)
}

// isGreeting 判断是否为问候或身份问题
func isGreeting(text string) bool {
	normalized := strings.Trim(strings.ToLower(text), "?.,! ")
	for _, trigger := range greetingTriggers {
		if normalized == trigger {
			return true
		}
	}
	for _, trigger := range identityTriggers {
		if normalized == trigger {
			return true
		}
	}
	return false
}
