package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bookrag/backend/internal/infrastructure/config"
	"github.com/bookrag/backend/internal/infrastructure/embedding"
	"github.com/bookrag/backend/internal/infrastructure/llm"
	applog "github.com/bookrag/backend/internal/infrastructure/log"
	"github.com/bookrag/backend/internal/infrastructure/vector"
)

// 诊断工具：检查 Gemini 可用模型列表，并用样例问题探测检索分数，
// 用于排查"模型不存在"和"阈值过滤掉所有结果"两类问题
func main() {
	applog.Init(nil)

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	listModels(ctx, cfg)
	probeRetrieval(ctx, cfg)
}

// listModels 打印可用的生成模型
func listModels(ctx context.Context, cfg *config.Config) {
	fmt.Println("=== Available Gemini models ===")

	client, err := llm.NewClient(cfg)
	if err != nil {
		fmt.Printf("skipped: %v\n\n", err)
		return
	}

	models, err := client.ListModels(ctx)
	if err != nil {
		fmt.Printf("failed to list models: %v\n\n", err)
		return
	}

	for _, m := range models {
		if !supportsGeneration(m) {
			continue
		}
		fmt.Printf("  %s (%s)\n", m.Name, m.DisplayName)
	}
	fmt.Println()
}

// supportsGeneration 判断模型是否支持 generateContent
func supportsGeneration(m llm.ModelInfo) bool {
	for _, method := range m.SupportedGenerationMethods {
		if strings.Contains(method, "generateContent") {
			return true
		}
	}
	return false
}

// probeRetrieval 用样例问题探测检索分数
func probeRetrieval(ctx context.Context, cfg *config.Config) {
	fmt.Println("=== Retrieval score probe ===")
	fmt.Printf("query threshold: %.2f, chat threshold: %.2f\n",
		cfg.Retrieval.QueryScoreThreshold, cfg.Retrieval.ChatScoreThreshold)

	embedder, err := embedding.NewEmbedder(cfg)
	if err != nil {
		fmt.Printf("skipped: %v\n", err)
		return
	}

	store, err := vector.NewStore(cfg, embedder)
	if err != nil {
		fmt.Printf("skipped: %v\n", err)
		return
	}

	count, err := store.Count(ctx)
	if err != nil {
		fmt.Printf("failed to count points: %v\n", err)
		return
	}
	fmt.Printf("collection points: %d\n", count)

	sampleQueries := []string{
		"What is physical AI?",
		"humanoid robot actuators",
		"how do robots perceive their environment",
	}

	for _, query := range sampleQueries {
		hits := store.Search(ctx, query, cfg.Retrieval.DefaultLimit)
		fmt.Printf("\nquery: %q (%d hits)\n", query, len(hits))
		for _, hit := range hits {
			marker := " "
			if hit.Score >= cfg.Retrieval.QueryScoreThreshold {
				marker = "*"
			}
			fmt.Printf("  %s %.4f  %s\n", marker, hit.Score, hit.Source)
		}
	}
}
