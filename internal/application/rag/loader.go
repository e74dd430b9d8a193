package rag

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	domainRAG "github.com/bookrag/backend/internal/domain/rag"
	"github.com/bookrag/backend/internal/infrastructure/log"
)

// DocumentLoader 书籍文档加载器
// 递归加载目录下所有 .md/.mdx 文件
type DocumentLoader struct {
	dir    string
	logger *slog.Logger
}

// NewDocumentLoader 创建文档加载器
func NewDocumentLoader(dir string) *DocumentLoader {
	return &DocumentLoader{
		dir:    dir,
		logger: log.NewModuleLogger("rag", "loader"),
	}
}

// Load 加载所有文档
// source 为相对于文档目录的路径；单个文件读取失败跳过并记录
func (l *DocumentLoader) Load() ([]domainRAG.Document, error) {
	var documents []domainRAG.Document

	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !isMarkdownFile(path) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("Failed to read document, skipping",
				"path", path,
				"error", err,
			)
			return nil
		}

		relPath, err := filepath.Rel(l.dir, path)
		if err != nil {
			relPath = path
		}

		documents = append(documents, domainRAG.Document{
			Content: string(content),
			Metadata: domainRAG.DocumentMetadata{
				Source: relPath,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Documents loaded",
		"dir", l.dir,
		"count", len(documents),
	)
	return documents, nil
}

// isMarkdownFile 判断是否为书籍文档文件
func isMarkdownFile(path string) bool {
	return strings.HasSuffix(path, ".md") || strings.HasSuffix(path, ".mdx")
}
