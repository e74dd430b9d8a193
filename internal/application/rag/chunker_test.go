package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainRAG "github.com/bookrag/backend/internal/domain/rag"
)

func makeDoc(content, source string) domainRAG.Document {
	return domainRAG.Document{
		Content:  content,
		Metadata: domainRAG.DocumentMetadata{Source: source},
	}
}

func TestNewChunker_InvalidConfig(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewChunker(tc.size, tc.overlap)
			assert.ErrorIs(t, err, domainRAG.ErrInvalidChunkConfig)
		})
	}
}

func TestChunker_Split_EmptyDocument(t *testing.T) {
	chunker, err := NewChunker(100, 20)
	require.NoError(t, err)

	assert.Empty(t, chunker.Split(makeDoc("", "empty.md")))
	assert.Empty(t, chunker.Split(makeDoc("  \n\t\n  ", "blank.md")))
}

func TestChunker_Split_SingleChunk(t *testing.T) {
	chunker, err := NewChunker(100, 20)
	require.NoError(t, err)

	chunks := chunker.Split(makeDoc("  alpha\n\nbeta  ", "intro.md"))
	require.Len(t, chunks, 1)

	// 段落合并保留空行分隔，首尾空白被去掉
	assert.Equal(t, "alpha\n\nbeta", chunks[0].Content)
	assert.Equal(t, "intro.md", chunks[0].Metadata.Source)
	assert.Equal(t, 0, chunks[0].Metadata.ChunkID)
}

func TestChunker_Split_OverflowStartsNewChunkWithOverlap(t *testing.T) {
	chunker, err := NewChunker(20, 5)
	require.NoError(t, err)

	para1 := strings.Repeat("a", 10)
	para2 := strings.Repeat("b", 10)
	chunks := chunker.Split(makeDoc(para1+"\n\n"+para2, "doc.md"))
	require.Len(t, chunks, 2)

	assert.Equal(t, para1, chunks[0].Content)
	// 第二个片段以前一片段的尾部重叠开头
	assert.Equal(t, "aaaaa\n\n"+para2, chunks[1].Content)
	assert.Equal(t, 1, chunks[1].Metadata.ChunkID)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 20)
	}
}

func TestChunker_Split_OversizedParagraph(t *testing.T) {
	chunker, err := NewChunker(10, 3)
	require.NoError(t, err)

	paragraph := "abcdefghijklmnop"
	chunks := chunker.Split(makeDoc(paragraph, "long.md"))
	require.NotEmpty(t, chunks)

	// 子片段之间按 overlap 重叠
	assert.Equal(t, "abcdefghij", chunks[0].Content)
	assert.True(t, strings.HasPrefix(chunks[1].Content, "hij"))

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 10)
		assert.Equal(t, i, chunk.Metadata.ChunkID)
	}
}

func TestChunker_Split_ChunksNeverExceedSize(t *testing.T) {
	chunker, err := NewChunker(50, 10)
	require.NoError(t, err)

	content := strings.Join([]string{
		strings.Repeat("x", 30),
		strings.Repeat("y", 45),
		strings.Repeat("z", 120),
		"short tail",
	}, "\n\n")

	for _, chunk := range chunker.Split(makeDoc(content, "mixed.md")) {
		assert.LessOrEqual(t, len(chunk.Content), 50, "chunk %q", chunk.Content)
	}
}

func TestChunker_SplitAll_ChunkIDsRestartPerDocument(t *testing.T) {
	chunker, err := NewChunker(100, 20)
	require.NoError(t, err)

	chunks := chunker.SplitAll([]domainRAG.Document{
		makeDoc("first document", "a.md"),
		makeDoc("second document", "b.md"),
	})
	require.Len(t, chunks, 2)

	assert.Equal(t, "a.md", chunks[0].Metadata.Source)
	assert.Equal(t, 0, chunks[0].Metadata.ChunkID)
	assert.Equal(t, "b.md", chunks[1].Metadata.Source)
	assert.Equal(t, 0, chunks[1].Metadata.ChunkID)
}
