package wire

import (
	"context"
	"database/sql"

	"log/slog"

	appRAG "github.com/bookrag/backend/internal/application/rag"
	"github.com/bookrag/backend/internal/infrastructure/config"
	applog "github.com/bookrag/backend/internal/infrastructure/log"
	"github.com/bookrag/backend/internal/infrastructure/watcher"
	httpServer "github.com/bookrag/backend/internal/interfaces/http"
	"github.com/bookrag/backend/internal/interfaces/mcp"
)

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer *httpServer.HTTPServer
	MCPServer  *mcp.MCPServer
	service    *appRAG.Service
	db         *sql.DB
	logger     *slog.Logger

	// 文档监听相关
	docsWatcher *watcher.DocsWatcher
}

// NewApp 创建应用实例
func NewApp(
	cfg *config.Config,
	httpSrv *httpServer.HTTPServer,
	mcpSrv *mcp.MCPServer,
	service *appRAG.Service,
	db *sql.DB,
) *App {
	logger := applog.NewModuleLogger("app", "main")

	app := &App{
		HTTPServer: httpSrv,
		MCPServer:  mcpSrv,
		service:    service,
		db:         db,
		logger:     logger,
	}

	// 初始化文档监听器（按配置开启）
	if cfg.Docs.Watch {
		docsWatcher, err := watcher.NewDocsWatcher(cfg.Docs.Dir, func() {
			if err := service.Ingest(context.Background(), false); err != nil {
				logger.Error("Re-ingestion after document change failed",
					"error", err,
				)
			}
		})
		if err != nil {
			logger.Error("Failed to create docs watcher", "error", err)
		} else {
			app.docsWatcher = docsWatcher
		}
	}

	return app
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting BookRAG backend application")

	ctx := context.Background()

	// 绑定生成模型（探测候选列表）
	model := a.service.BindModel(ctx)
	a.logger.Info("Generation model bound",
		"model", model,
	)

	// 幂等摄取：集合已有数据则跳过
	if err := a.service.EnsureIngested(ctx); err != nil {
		a.logger.Error("Initial ingestion failed, service will start without index",
			"error", err,
		)
	}

	// 启动文档监听
	if a.docsWatcher != nil {
		if err := a.docsWatcher.Start(); err != nil {
			a.logger.Error("Failed to start docs watcher",
				"error", err,
			)
		} else {
			a.logger.Info("Docs watcher started successfully")
		}
	}

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Start(); err != nil {
			a.logger.Error("Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	a.logger.Info("BookRAG backend application started successfully")

	// MCP 服务器通过 HTTP Handler 提供服务，不需要单独启动
	// 已在 HTTP 服务器中注册 /mcp/sse 端点

	return nil
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("Stopping BookRAG backend application")

	// 停止文档监听器
	if a.docsWatcher != nil {
		a.docsWatcher.Stop()
		a.logger.Info("Docs watcher stopped")
	}

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
		return err
	}
	if err := a.MCPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop MCP server",
			"error", err,
		)
		return err
	}

	// 关闭数据库连接
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database connection",
				"error", err,
			)
			return err
		}
	}

	a.logger.Info("BookRAG backend application stopped successfully")

	return nil
}
