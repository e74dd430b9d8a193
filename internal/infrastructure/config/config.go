package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Docs      DocsConfig      `yaml:"docs"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Chat      ChatConfig      `yaml:"chat"`
	Database  DatabaseConfig  `yaml:"database"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort string `yaml:"http_port"`
}

// DocsConfig 书籍文档目录配置
type DocsConfig struct {
	// Dir markdown/mdx 文档所在目录
	Dir string `yaml:"dir"`
	// Watch 是否监听目录变化并自动重新摄取
	Watch bool `yaml:"watch"`
}

// QdrantConfig Qdrant 连接配置
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
	Collection string `yaml:"collection"`
}

// EmbeddingConfig 向量化配置
type EmbeddingConfig struct {
	// Provider 向量化实现：local（确定性本地模型）或 gemini（REST API）
	Provider string `yaml:"provider"`
	// Model gemini provider 使用的模型名
	Model string `yaml:"model"`
	// Dimension local provider 的向量维度
	Dimension int `yaml:"dimension"`
}

// GeminiConfig Gemini API 配置
type GeminiConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// CandidateModels 按顺序探测的候选模型
	CandidateModels []string `yaml:"candidate_models"`
	// FallbackModel 所有候选探测失败时乐观绑定的模型
	FallbackModel string `yaml:"fallback_model"`
}

// RetrievalConfig 检索配置
type RetrievalConfig struct {
	QueryScoreThreshold float32 `yaml:"query_score_threshold"`
	ChatScoreThreshold  float32 `yaml:"chat_score_threshold"`
	DefaultLimit        int     `yaml:"default_limit"`
}

// ChunkingConfig 切分配置
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// ChatConfig 对话会话配置
type ChatConfig struct {
	// SessionTTL 会话空闲过期时间，如 "1h"
	SessionTTL string `yaml:"session_ttl"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Path 为空时使用 ~/.bookrag/bookrag.db
	Path string `yaml:"path"`
}

// 占位符 API Key 片段，视为未配置
var placeholderKeyFragments = []string{"REPLACE_THIS", "TYPE_YOUR_KEY"}

// NewConfig 加载配置
// 顺序：.env 文件 -> yaml 文件 -> 环境变量覆盖 -> 校验
func NewConfig() (*Config, error) {
	// 加载 .env（不存在时忽略）
	_ = godotenv.Load("chatbot_config.env")
	_ = godotenv.Load()

	cfg := defaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfig 默认配置
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: ":8000",
		},
		Docs: DocsConfig{
			Dir:   "physical-ai-book/docs",
			Watch: false,
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "physical_ai_textbook_gemini",
		},
		Embedding: EmbeddingConfig{
			Provider:  "local",
			Model:     "models/embedding-001",
			Dimension: 384,
		},
		Gemini: GeminiConfig{
			BaseURL: "https://generativelanguage.googleapis.com",
			CandidateModels: []string{
				"models/gemini-2.5-flash",
				"models/gemini-2.0-flash-lite",
				"models/gemini-2.0-flash-lite-001",
				"models/gemini-2.0-pro-exp",
				"models/gemini-pro-latest",
				"models/gemma-3-27b-it",
				"gemini-2.0-flash-exp",
				"gemini-flash-latest",
			},
			FallbackModel: "models/gemini-2.5-flash",
		},
		Retrieval: RetrievalConfig{
			QueryScoreThreshold: 0.25,
			ChatScoreThreshold:  0.18,
			DefaultLimit:        5,
		},
		Chunking: ChunkingConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Chat: ChatConfig{
			SessionTTL: "1h",
		},
		Database: DatabaseConfig{
			Path: "",
		},
	}
}

// applyEnvOverrides 应用环境变量覆盖
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	} else if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	// 清理用户可能带入的空格和引号
	c.Gemini.APIKey = cleanAPIKey(c.Gemini.APIKey)

	if host := os.Getenv("QDRANT_HOST"); host != "" {
		c.Qdrant.Host = host
	}
	if port := os.Getenv("QDRANT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Qdrant.Port = p
		}
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" {
		c.Qdrant.APIKey = key
	}
	if dir := os.Getenv("DOCS_DIR"); dir != "" {
		c.Docs.Dir = dir
	}
}

// cleanAPIKey 清理 API Key 中的空格和引号
func cleanAPIKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.Trim(key, `"`)
	key = strings.Trim(key, `'`)
	return key
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 {
		return fmt.Errorf("chunking.chunk_overlap must not be negative, got %d", c.Chunking.ChunkOverlap)
	}
	if c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.chunk_overlap (%d) must be smaller than chunking.chunk_size (%d)",
			c.Chunking.ChunkOverlap, c.Chunking.ChunkSize)
	}

	if c.Retrieval.QueryScoreThreshold < -1 || c.Retrieval.QueryScoreThreshold > 1 {
		return fmt.Errorf("retrieval.query_score_threshold must be within [-1, 1]")
	}
	if c.Retrieval.ChatScoreThreshold < -1 || c.Retrieval.ChatScoreThreshold > 1 {
		return fmt.Errorf("retrieval.chat_score_threshold must be within [-1, 1]")
	}
	if c.Retrieval.DefaultLimit <= 0 {
		return fmt.Errorf("retrieval.default_limit must be positive, got %d", c.Retrieval.DefaultLimit)
	}

	if c.Embedding.Provider != "local" && c.Embedding.Provider != "gemini" {
		return fmt.Errorf("embedding.provider must be 'local' or 'gemini', got %q", c.Embedding.Provider)
	}
	if c.Embedding.Provider == "local" && c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive for local provider")
	}

	// gemini 向量化没有本地回退，API Key 必须在加载时就有效；
	// 生成端的 Key 由 LLM 客户端在构造时校验
	if c.Embedding.Provider == "gemini" {
		if err := validateAPIKey(c.Gemini.APIKey); err != nil {
			return fmt.Errorf("gemini api key: %w", err)
		}
	}

	if _, err := c.SessionTTL(); err != nil {
		return fmt.Errorf("chat.session_ttl: %w", err)
	}

	return nil
}

// validateAPIKey 校验 API Key 是否为占位符
func validateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}
	for _, fragment := range placeholderKeyFragments {
		if strings.Contains(key, fragment) {
			return fmt.Errorf("key looks like a placeholder, please set a real key in .env or config.yaml")
		}
	}
	return nil
}

// ValidateGeminiKey 校验生成端 API Key（服务启动时调用）
func (c *Config) ValidateGeminiKey() error {
	if err := validateAPIKey(c.Gemini.APIKey); err != nil {
		return fmt.Errorf("gemini api key: %w", err)
	}
	return nil
}

// SessionTTL 解析会话过期时间
func (c *Config) SessionTTL() (time.Duration, error) {
	if c.Chat.SessionTTL == "" {
		return time.Hour, nil
	}
	return time.ParseDuration(c.Chat.SessionTTL)
}
