package mcp

import (
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	appRAG "github.com/bookrag/backend/internal/application/rag"
)

// MCPServer MCP 服务器
type MCPServer struct {
	server  *mcp.Server
	handler http.Handler
	service *appRAG.Service
}

// NewServer 创建 MCP 服务器
func NewServer(service *appRAG.Service) *MCPServer {
	// 创建 MCP 服务器实例
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "bookrag-backend",
			Version: "0.1.0",
		},
		nil, // 使用默认能力
	)

	// 创建服务器实例（用于闭包捕获依赖）
	mcpServer := &MCPServer{
		server:  server,
		service: service,
	}

	// 注册工具：search_book
	mcp.AddTool(server, &mcp.Tool{
		Name: "search_book",
		Description: `Search the 'Physical AI Humanoid Robotics' textbook for passages relevant to a query.
Parameters:
- query (string, required): Natural language description of the topic to look up
- limit (int, optional): Maximum number of passages to return, defaults to 5

Returns: List of matching passages with source file and similarity score.`,
	}, mcpServer.searchBookTool)

	// 注册工具：ask_book
	mcp.AddTool(server, &mcp.Tool{
		Name: "ask_book",
		Description: `Ask a question about the 'Physical AI Humanoid Robotics' textbook and get an answer grounded strictly in the book content.
Parameters:
- question (string, required): The question to answer

Returns: The answer text, or a refusal if the book does not cover the topic.`,
	}, mcpServer.askBookTool)

	// 创建 SSE Handler
	handler := mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			// 每个请求返回同一个服务器实例
			return server
		},
		nil, // SSEOptions，使用默认值
	)

	mcpServer.handler = handler
	return mcpServer
}

// GetHandler 获取 HTTP Handler（用于集成到 HTTP 服务器）
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}

// Start 启动服务器（HTTP/SSE 模式）
// 注意：MCP 服务器通过 HTTP Handler 提供服务，不需要单独启动
func (s *MCPServer) Start() error {
	fmt.Println("MCP 服务器已就绪（HTTP/SSE 模式）")
	return nil
}

// Stop 停止服务器
func (s *MCPServer) Stop() error {
	// HTTP/SSE 模式下，由 HTTP 服务器统一管理生命周期
	return nil
}
