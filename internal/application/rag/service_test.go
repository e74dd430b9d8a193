package rag

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainRAG "github.com/bookrag/backend/internal/domain/rag"
	"github.com/bookrag/backend/internal/infrastructure/config"
)

// fakeSearcher 可编程的向量库
type fakeSearcher struct {
	hits     []domainRAG.SearchHit
	upserted []domainRAG.Chunk
	count    uint64
	countErr error

	ensureCalls int
	searchCalls int
}

func (f *fakeSearcher) EnsureCollection(_ context.Context, _ bool) error {
	f.ensureCalls++
	return nil
}

func (f *fakeSearcher) Upsert(_ context.Context, chunks []domainRAG.Chunk) error {
	f.upserted = append(f.upserted, chunks...)
	return nil
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ int) []domainRAG.SearchHit {
	f.searchCalls++
	return f.hits
}

func (f *fakeSearcher) Count(_ context.Context) (uint64, error) {
	return f.count, f.countErr
}

var _ VectorSearcher = (*fakeSearcher)(nil)

// echoGenClient 把收到的 prompt 回显为结果，便于断言 prompt 内容
type echoGenClient struct{}

func (echoGenClient) Generate(_ context.Context, _, prompt string) (string, error) {
	if prompt == "Test" {
		return "ok", nil
	}
	return "ANSWER:" + prompt, nil
}

func serviceConfig() *config.Config {
	return &config.Config{
		Gemini: config.GeminiConfig{
			CandidateModels: []string{"models/one"},
			FallbackModel:   "models/one",
		},
		Retrieval: config.RetrievalConfig{
			QueryScoreThreshold: 0.25,
			ChatScoreThreshold:  0.18,
			DefaultLimit:        5,
		},
	}
}

func newTestService(t *testing.T, docsDir string, searcher *fakeSearcher) *Service {
	t.Helper()

	cfg := serviceConfig()
	chunker, err := NewChunker(1000, 200)
	require.NoError(t, err)

	return NewService(
		cfg,
		NewDocumentLoader(docsDir),
		chunker,
		searcher,
		NewPromptBuilder(),
		NewFallbackController(echoGenClient{}, cfg),
		NewSessionStore(0),
	)
}

func TestService_Query_NoResults(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := newTestService(t, t.TempDir(), searcher)

	got := svc.Query(context.Background(), "anything", 0, "")
	assert.Equal(t, NoResultsMessage, got)
}

func TestService_Query_AllHitsBelowThreshold(t *testing.T) {
	searcher := &fakeSearcher{
		hits: []domainRAG.SearchHit{
			{Content: "weak match", Source: "a.md", Score: 0.1},
		},
	}
	svc := newTestService(t, t.TempDir(), searcher)

	got := svc.Query(context.Background(), "unrelated question", 0, "")
	assert.Equal(t, RefusalMessage, got)
}

func TestService_Query_GeneratesFromGatedHits(t *testing.T) {
	searcher := &fakeSearcher{
		hits: []domainRAG.SearchHit{
			{Content: "strong match", Source: "a.md", Score: 0.8},
			{Content: "weak match", Source: "b.md", Score: 0.1},
		},
	}
	svc := newTestService(t, t.TempDir(), searcher)

	got := svc.Query(context.Background(), "what is it?", 0, "")
	require.True(t, strings.HasPrefix(got, "ANSWER:"))

	// 只有过阈值的命中进入上下文
	assert.Contains(t, got, "strong match")
	assert.NotContains(t, got, "weak match")
	assert.Contains(t, got, "Question: what is it?")
}

func TestService_Query_SelectedPassageSkipsSearch(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := newTestService(t, t.TempDir(), searcher)

	got := svc.Query(context.Background(), "explain this", 0, "The robot has 24 joints.")
	require.True(t, strings.HasPrefix(got, "ANSWER:"))

	assert.Contains(t, got, "Source: selected_passage")
	assert.Contains(t, got, "The robot has 24 joints.")
	assert.Zero(t, searcher.searchCalls)
}

func TestService_Chat_GreetingIntercepted(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := newTestService(t, t.TempDir(), searcher)

	for _, text := range []string{"hi", "Hello!", "HEY.", "who are you?", "What are you"} {
		got := svc.Chat(context.Background(), text, nil, 0)
		assert.Equal(t, IntroductionMessage, got, "text %q", text)
	}
	assert.Zero(t, searcher.searchCalls)
}

func TestService_Chat_RefusesWhenNothingPassesThreshold(t *testing.T) {
	searcher := &fakeSearcher{
		hits: []domainRAG.SearchHit{
			{Content: "weak", Source: "a.md", Score: 0.05},
		},
	}
	svc := newTestService(t, t.TempDir(), searcher)

	got := svc.Chat(context.Background(), "tell me about quantum finance", nil, 0)
	assert.Equal(t, ChatRefusalMessage, got)
}

func TestService_Chat_IncludesHistory(t *testing.T) {
	searcher := &fakeSearcher{
		hits: []domainRAG.SearchHit{
			{Content: "relevant content", Source: "a.md", Score: 0.5},
		},
	}
	svc := newTestService(t, t.TempDir(), searcher)

	history := []domainRAG.ChatMessage{
		{Role: domainRAG.RoleUser, Content: "earlier question"},
		{Role: domainRAG.RoleAssistant, Content: "earlier answer"},
	}
	got := svc.Chat(context.Background(), "follow-up", history, 0)
	require.True(t, strings.HasPrefix(got, "ANSWER:"))

	assert.Contains(t, got, "User: earlier question")
	assert.Contains(t, got, "Assistant: earlier answer")
}

func TestService_Translate(t *testing.T) {
	svc := newTestService(t, t.TempDir(), &fakeSearcher{})

	got := svc.Translate(context.Background(), "Hello", "")
	require.True(t, strings.HasPrefix(got, "ANSWER:"))
	assert.Contains(t, got, "Translate the following text into Urdu")
}

func TestService_Ingest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ch1.md", "# Chapter 1\n\nRobots are machines.")

	searcher := &fakeSearcher{}
	svc := newTestService(t, dir, searcher)

	require.NoError(t, svc.Ingest(context.Background(), false))
	assert.Equal(t, 1, searcher.ensureCalls)
	require.NotEmpty(t, searcher.upserted)
	assert.Equal(t, "ch1.md", searcher.upserted[0].Metadata.Source)
}

func TestService_Ingest_NoDocuments(t *testing.T) {
	svc := newTestService(t, t.TempDir(), &fakeSearcher{})

	err := svc.Ingest(context.Background(), false)
	assert.ErrorIs(t, err, domainRAG.ErrNoDocuments)
}

func TestService_EnsureIngested_SkipsWhenPopulated(t *testing.T) {
	searcher := &fakeSearcher{count: 42}
	svc := newTestService(t, t.TempDir(), searcher)

	require.NoError(t, svc.EnsureIngested(context.Background()))
	assert.Zero(t, searcher.ensureCalls)
	assert.Empty(t, searcher.upserted)
}

func TestService_EnsureIngested_IngestsWhenCountFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ch1.md", "content")

	searcher := &fakeSearcher{countErr: fmt.Errorf("collection missing")}
	svc := newTestService(t, dir, searcher)

	require.NoError(t, svc.EnsureIngested(context.Background()))
	assert.Equal(t, 1, searcher.ensureCalls)
	assert.NotEmpty(t, searcher.upserted)
}

func TestService_Search_GatesByQueryThreshold(t *testing.T) {
	searcher := &fakeSearcher{
		hits: []domainRAG.SearchHit{
			{Content: "keep", Source: "a.md", Score: 0.5},
			{Content: "drop", Source: "b.md", Score: 0.1},
		},
	}
	svc := newTestService(t, t.TempDir(), searcher)

	hits := svc.Search(context.Background(), "query", 0)
	require.Len(t, hits, 1)
	assert.Equal(t, "keep", hits[0].Content)
}
