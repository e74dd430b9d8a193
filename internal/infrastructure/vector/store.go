package vector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	domainRAG "github.com/bookrag/backend/internal/domain/rag"
	"github.com/bookrag/backend/internal/infrastructure/config"
	"github.com/bookrag/backend/internal/infrastructure/embedding"
	"github.com/bookrag/backend/internal/infrastructure/log"
)

// upsertBatchSize 每批向量化并写入的片段数
const upsertBatchSize = 100

// Store Qdrant 向量库适配器
// 持有单个集合，写入前负责向量化
type Store struct {
	client     *qdrant.Client
	embedder   embedding.Embedder
	collection string
	logger     *slog.Logger
}

// NewStore 创建向量库适配器
func NewStore(cfg *config.Config, embedder embedding.Embedder) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey,
		UseTLS: cfg.Qdrant.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &Store{
		client:     client,
		embedder:   embedder,
		collection: cfg.Qdrant.Collection,
		logger:     log.NewModuleLogger("vector", "store"),
	}, nil
}

// Close 关闭底层连接
func (s *Store) Close() error {
	return s.client.Close()
}

// EnsureCollection 确保集合存在且维度正确
// 维度不匹配或 forceRecreate 为 true 时删除重建（破坏性操作）
func (s *Store) EnsureCollection(ctx context.Context, forceRecreate bool) error {
	size := uint64(s.embedder.Dimension())

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if exists {
		info, err := s.client.GetCollectionInfo(ctx, s.collection)
		if err != nil {
			return fmt.Errorf("failed to get collection info: %w", err)
		}

		currentSize := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if currentSize == size && !forceRecreate {
			s.logger.Debug("Collection already exists with correct dimensions",
				"collection", s.collection,
				"dimension", size,
			)
			return nil
		}

		s.logger.Info("Recreating collection",
			"collection", s.collection,
			"current_dimension", currentSize,
			"wanted_dimension", size,
			"force", forceRecreate,
		)
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     size,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}

	s.logger.Info("Collection created",
		"collection", s.collection,
		"dimension", size,
	)
	return nil
}

// Upsert 向量化并写入片段
// 分批处理，任何一批失败都中止并返回错误
func (s *Store) Upsert(ctx context.Context, chunks []domainRAG.Chunk) error {
	if len(chunks) == 0 {
		s.logger.Info("No chunks to upsert")
		return nil
	}

	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedding count mismatch in batch %d-%d: got %d, want %d",
				start, end, len(vectors), len(batch))
		}

		points := make([]*qdrant.PointStruct, len(batch))
		for i, chunk := range batch {
			points[i] = &qdrant.PointStruct{
				Id:      qdrant.NewID(uuid.New().String()),
				Vectors: qdrant.NewVectors(vectors[i]...),
				Payload: qdrant.NewValueMap(map[string]interface{}{
					"content":  sanitizeUTF8(chunk.Content),
					"source":   sanitizeUTF8(chunk.Metadata.Source),
					"chunk_id": chunk.Metadata.ChunkID,
				}),
			}
		}

		_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", start, end, err)
		}

		s.logger.Debug("Upserted batch",
			"from", start,
			"to", end,
		)
	}

	s.logger.Info("Upsert completed",
		"collection", s.collection,
		"chunk_count", len(chunks),
	)
	return nil
}

// Search 向量化查询文本并执行近邻检索
// 任何失败都吞掉并返回空结果，检索失败不应打断上层流程
func (s *Store) Search(ctx context.Context, text string, limit int) []domainRAG.SearchHit {
	queryVector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Error("Failed to embed query", "error", err)
		return nil
	}

	queryLimit := uint64(limit)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &queryLimit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		s.logger.Error("Failed to query qdrant", "error", err)
		return nil
	}

	hits := make([]domainRAG.SearchHit, 0, len(points))
	for _, point := range points {
		hit, ok := s.pointToHit(point)
		if !ok {
			continue
		}
		hits = append(hits, hit)
	}

	s.logger.Debug("Search completed",
		"hits_count", len(hits),
	)
	return hits
}

// Count 返回集合中的精确点数
func (s *Store) Count(ctx context.Context) (uint64, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return count, nil
}

// pointToHit 将 Qdrant 命中转换为检索结果
// 余弦分数范围之外的命中视为异常数据丢弃
func (s *Store) pointToHit(point *qdrant.ScoredPoint) (domainRAG.SearchHit, bool) {
	score := point.GetScore()
	if score < -1 || score > 1 {
		s.logger.Warn("Discarding hit with out-of-range score", "score", score)
		return domainRAG.SearchHit{}, false
	}

	payload := point.GetPayload()
	if payload == nil {
		return domainRAG.SearchHit{}, false
	}

	hit := domainRAG.SearchHit{Score: score}
	if val, ok := payload["content"]; ok {
		hit.Content = extractStringValue(val)
	}
	if val, ok := payload["source"]; ok {
		hit.Source = extractStringValue(val)
	}

	return hit, true
}

// extractStringValue 从 qdrant.Value 提取字符串值
func extractStringValue(val *qdrant.Value) string {
	if val == nil {
		return ""
	}
	return val.GetStringValue()
}

// sanitizeUTF8 清理字符串中的无效 UTF-8 字符
// Qdrant 客户端要求所有字符串必须是有效的 UTF-8
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}
