//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	appRAG "github.com/bookrag/backend/internal/application/rag"
	"github.com/bookrag/backend/internal/infrastructure/config"
	"github.com/bookrag/backend/internal/infrastructure/embedding"
	"github.com/bookrag/backend/internal/infrastructure/llm"
	"github.com/bookrag/backend/internal/infrastructure/storage"
	"github.com/bookrag/backend/internal/infrastructure/vector"
	httpServer "github.com/bookrag/backend/internal/interfaces/http"
	"github.com/bookrag/backend/internal/interfaces/http/handler"
	"github.com/bookrag/backend/internal/interfaces/mcp"
)

// InitializeAll 初始化所有服务（HTTP + MCP）
func InitializeAll() (*App, error) {
	wire.Build(
		// 基础设施层
		config.NewConfig,
		embedding.NewEmbedder,
		vector.NewStore,
		llm.NewClient,
		storage.OpenDB,
		storage.NewUserRepository,

		// 应用层
		provideChunker,
		provideLoader,
		provideSessionStore,
		appRAG.NewPromptBuilder,
		appRAG.NewFallbackController,
		appRAG.NewService,

		// 接口绑定
		wire.Bind(new(appRAG.VectorSearcher), new(*vector.Store)),
		wire.Bind(new(appRAG.GenerationClient), new(*llm.Client)),

		// 接口层
		handler.NewBookHandler,
		handler.NewAuthHandler,
		mcp.NewServer,
		httpServer.NewServer,

		NewApp, // 组合所有服务的应用结构
	)
	return nil, nil
}
