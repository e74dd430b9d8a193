package rag

// DocumentMetadata 文档元数据
type DocumentMetadata struct {
	// Source 文档来源（相对于文档目录的路径）
	Source string `json:"source"`
}

// Document 原始文档
// 从 markdown/mdx 文件加载，未切分
type Document struct {
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
}

// ChunkMetadata 片段元数据
type ChunkMetadata struct {
	// Source 片段所属文档的来源
	Source string `json:"source"`
	// ChunkID 片段在文档内的序号（从 0 开始，按产出顺序）
	ChunkID int `json:"chunk_id"`
}

// Chunk 文本片段
// 切分器的输出单位，也是向量库的写入单位
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// SearchHit 检索命中结果
type SearchHit struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float32 `json:"score"`
}

// 对话角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 对话消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
