package rag

import "errors"

var (
	// ErrInvalidChunkConfig 切分参数非法（overlap >= size 会导致切分无法前进）
	ErrInvalidChunkConfig = errors.New("chunk overlap must be smaller than chunk size")

	// ErrNoDocuments 文档目录中没有可加载的文档
	ErrNoDocuments = errors.New("no markdown documents found")
)
