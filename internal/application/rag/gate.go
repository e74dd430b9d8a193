package rag

import (
	domainRAG "github.com/bookrag/backend/internal/domain/rag"
)

// GateHits 按最低相似度分数过滤检索结果
// 分数 >= threshold 的命中保留，顺序不变
func GateHits(hits []domainRAG.SearchHit, threshold float32) []domainRAG.SearchHit {
	if len(hits) == 0 {
		return nil
	}

	gated := make([]domainRAG.SearchHit, 0, len(hits))
	for _, hit := range hits {
		if hit.Score >= threshold {
			gated = append(gated, hit)
		}
	}
	return gated
}
