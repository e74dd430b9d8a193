package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainRAG "github.com/bookrag/backend/internal/domain/rag"
)

func TestGateHits(t *testing.T) {
	hits := []domainRAG.SearchHit{
		{Content: "high", Score: 0.9},
		{Content: "boundary", Score: 0.25},
		{Content: "low", Score: 0.1},
	}

	gated := GateHits(hits, 0.25)
	assert.Len(t, gated, 2)

	// 顺序保持不变，阈值本身算通过
	assert.Equal(t, "high", gated[0].Content)
	assert.Equal(t, "boundary", gated[1].Content)
}

func TestGateHits_Empty(t *testing.T) {
	assert.Nil(t, GateHits(nil, 0.25))
	assert.Nil(t, GateHits([]domainRAG.SearchHit{}, 0.25))
}

func TestGateHits_AllBelowThreshold(t *testing.T) {
	hits := []domainRAG.SearchHit{
		{Content: "a", Score: 0.1},
		{Content: "b", Score: 0.05},
	}

	assert.Empty(t, GateHits(hits, 0.25))
}

func TestGateHits_NegativeThresholdKeepsNegativeScores(t *testing.T) {
	hits := []domainRAG.SearchHit{
		{Content: "a", Score: -0.2},
	}

	assert.Len(t, GateHits(hits, -0.5), 1)
	assert.Empty(t, GateHits(hits, 0))
}
