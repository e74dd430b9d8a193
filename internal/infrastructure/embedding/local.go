package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// wordPattern 提取小写后的字母数字词
var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

// LocalEmbedder 本地确定性向量化实现
// 基于哈希词袋（hashed bag-of-words）：每个词通过 FNV 哈希映射到一个维度，
// 符号位由哈希决定，最后做 L2 归一化。没有外部依赖和调用配额，
// 同一文本在任何进程中产出完全相同的向量。
type LocalEmbedder struct {
	dimension int
}

// NewLocalEmbedder 创建本地向量化器
func NewLocalEmbedder(dimension int) *LocalEmbedder {
	if dimension <= 0 {
		dimension = 384
	}
	return &LocalEmbedder{dimension: dimension}
}

// Embed 向量化单条文本
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.encode(text), nil
}

// EmbedBatch 向量化一批文本
func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.encode(text)
	}
	return vectors, nil
}

// Dimension 返回向量维度
func (e *LocalEmbedder) Dimension() int {
	return e.dimension
}

// encode 计算哈希词袋向量
func (e *LocalEmbedder) encode(text string) []float32 {
	vector := make([]float32, e.dimension)

	words := wordPattern.FindAllString(strings.ToLower(normalizeText(text)), -1)
	for _, word := range words {
		h := fnv.New32a()
		h.Write([]byte(word))
		sum := h.Sum32()

		index := int(sum % uint32(e.dimension))
		// 用哈希的高位决定符号，降低词之间的相互抵消
		if sum&0x80000000 != 0 {
			vector[index] -= 1
		} else {
			vector[index] += 1
		}
	}

	// L2 归一化，保证余弦分数落在 [-1, 1]
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}

	return vector
}

// 编译时检查接口实现
var _ Embedder = (*LocalEmbedder)(nil)
