package rag

import (
	"regexp"
	"strings"

	domainRAG "github.com/bookrag/backend/internal/domain/rag"
)

// blankLinePattern 段落分隔：空行（可含空白字符）
var blankLinePattern = regexp.MustCompile(`\n\s*\n`)

// Chunker 文本切分器
// 优先按段落聚合，单段超长时退化为按字符定步长切分。
// 相邻片段之间保留 chunkOverlap 个字符的重叠以维持上下文连续性。
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker 创建切分器
// overlap >= size 会让切分无法前进，直接拒绝
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, domainRAG.ErrInvalidChunkConfig
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

// SplitAll 切分多个文档
// 片段序号在每个文档内独立从 0 开始
func (c *Chunker) SplitAll(docs []domainRAG.Document) []domainRAG.Chunk {
	var chunks []domainRAG.Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.Split(doc)...)
	}
	return chunks
}

// Split 切分单个文档
func (c *Chunker) Split(doc domainRAG.Document) []domainRAG.Chunk {
	if strings.TrimSpace(doc.Content) == "" {
		return nil
	}

	var chunks []domainRAG.Chunk
	emit := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		chunks = append(chunks, domainRAG.Chunk{
			Content: text,
			Metadata: domainRAG.ChunkMetadata{
				Source:  doc.Metadata.Source,
				ChunkID: len(chunks),
			},
		})
	}

	paragraphs := blankLinePattern.Split(doc.Content, -1)
	current := ""

	for _, paragraph := range paragraphs {
		// 超长段落：先落盘缓冲，再按字符定步长切分
		if len(paragraph) > c.chunkSize {
			if current != "" {
				emit(current)
			}
			c.splitOversized(paragraph, emit)
			// 段落尾部作为下一片段的重叠种子
			current = tailRunes(paragraph, c.chunkOverlap)
			continue
		}

		// 加入该段落会溢出：落盘缓冲，用尾部重叠 + 新段落开启下一片段
		if current != "" && len(current)+len(paragraph)+2 > c.chunkSize {
			emit(current)
			seed := tailRunes(current, c.seedOverlap(len(paragraph)))
			if seed != "" {
				current = seed + "\n\n" + paragraph
			} else {
				current = paragraph
			}
			continue
		}

		if current == "" {
			current = paragraph
		} else {
			current = current + "\n\n" + paragraph
		}
	}

	if current != "" {
		emit(current)
	}

	return chunks
}

// splitOversized 按字符切分超长段落
// 步长为 size-overlap，相邻子片段重叠 overlap 个字符
func (c *Chunker) splitOversized(paragraph string, emit func(string)) {
	runes := []rune(paragraph)
	stride := c.chunkSize - c.chunkOverlap

	for i := 0; i < len(runes); i += stride {
		end := i + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		emit(string(runes[i:end]))
	}
}

// seedOverlap 计算重叠种子长度
// 压缩到种子 + 连接符 + 段落不超过 chunkSize，保证所有片段有界
func (c *Chunker) seedOverlap(paragraphLen int) int {
	overlap := c.chunkOverlap
	if max := c.chunkSize - 2 - paragraphLen; overlap > max {
		overlap = max
	}
	if overlap < 0 {
		return 0
	}
	return overlap
}

// tailRunes 返回字符串最后 n 个字符
func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
