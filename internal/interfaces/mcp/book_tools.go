package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	domainRAG "github.com/bookrag/backend/internal/domain/rag"
)

// SearchBookInput 书籍检索工具输入
type SearchBookInput struct {
	Query string `json:"query" jsonschema:"Search query - describe the topic to look up in natural language (required)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of passages to return, defaults to 5, max 10"`
}

// SearchBookOutput 书籍检索工具输出
type SearchBookOutput struct {
	Results    []domainRAG.SearchHit `json:"results" jsonschema:"List of matching passages with source and score"`
	TotalCount int                   `json:"total_count" jsonschema:"Total number of passages returned"`
}

// searchBookTool 书籍检索工具实现
func (s *MCPServer) searchBookTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchBookInput,
) (*mcp.CallToolResult, SearchBookOutput, error) {
	output := SearchBookOutput{
		Results: []domainRAG.SearchHit{},
	}

	// 验证输入
	if input.Query == "" {
		return nil, output, fmt.Errorf("query is required")
	}

	// 设置默认值（最多 10 个，避免上下文过载）
	limit := input.Limit
	if limit <= 0 {
		limit = 5
	}
	if limit > 10 {
		limit = 10
	}

	hits := s.service.Search(ctx, input.Query, limit)
	if len(hits) > 0 {
		output.Results = hits
	}
	output.TotalCount = len(output.Results)

	// 返回 nil，SDK 会自动序列化 output
	return nil, output, nil
}

// AskBookInput 书籍问答工具输入
type AskBookInput struct {
	Question string `json:"question" jsonschema:"The question to answer from the book content (required)"`
}

// AskBookOutput 书籍问答工具输出
type AskBookOutput struct {
	Answer string `json:"answer" jsonschema:"Answer grounded in the book, or a refusal message"`
}

// askBookTool 书籍问答工具实现
func (s *MCPServer) askBookTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AskBookInput,
) (*mcp.CallToolResult, AskBookOutput, error) {
	output := AskBookOutput{}

	if input.Question == "" {
		return nil, output, fmt.Errorf("question is required")
	}

	output.Answer = s.service.Query(ctx, input.Question, 0, "")
	return nil, output, nil
}
