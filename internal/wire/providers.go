package wire

import (
	appRAG "github.com/bookrag/backend/internal/application/rag"
	"github.com/bookrag/backend/internal/infrastructure/config"
)

// provideChunker 从配置创建切分器
func provideChunker(cfg *config.Config) (*appRAG.Chunker, error) {
	return appRAG.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
}

// provideLoader 从配置创建文档加载器
func provideLoader(cfg *config.Config) *appRAG.DocumentLoader {
	return appRAG.NewDocumentLoader(cfg.Docs.Dir)
}

// provideSessionStore 从配置创建会话存储
func provideSessionStore(cfg *config.Config) (*appRAG.SessionStore, error) {
	ttl, err := cfg.SessionTTL()
	if err != nil {
		return nil, err
	}
	return appRAG.NewSessionStore(ttl), nil
}
