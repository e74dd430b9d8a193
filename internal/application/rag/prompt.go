package rag

import (
	"fmt"
	"log/slog"
	"strings"

	domainRAG "github.com/bookrag/backend/internal/domain/rag"
	"github.com/bookrag/backend/internal/infrastructure/log"
	"github.com/bookrag/backend/internal/infrastructure/token"
)

// 固定的用户可见消息
const (
	// RefusalMessage 上下文中没有答案时的严格拒答
	RefusalMessage = "I can only answer questions contained within the Physical AI book references."

	// NoResultsMessage 检索结果为空时的回复
	NoResultsMessage = "I couldn't find relevant info in the book."

	// ChatRefusalMessage 对话模式下所有命中都被过滤掉时的回复
	ChatRefusalMessage = "Please ask me a question related to this book. I only answer questions from this content."

	// IntroductionMessage 问候/身份问题的固定自我介绍
	IntroductionMessage = "I am the Physical AI Book Assistant, a specialized chatbot for the 'Physical AI Humanoid Robotics' textbook. You can ask me questions about the book's content."
)

// PromptBuilder Prompt 构造器
// 三种固定形态：问答、对话、翻译，全部确定性拼接
type PromptBuilder struct {
	estimator *token.Estimator
	logger    *slog.Logger
}

// NewPromptBuilder 创建 Prompt 构造器
// tiktoken 编码加载失败时仅禁用 Token 估算，不影响构造
func NewPromptBuilder() *PromptBuilder {
	logger := log.NewModuleLogger("rag", "prompt")

	estimator, err := token.GetEstimator()
	if err != nil {
		logger.Warn("Token estimator unavailable, prompt sizes will not be logged",
			"error", err,
		)
	}

	return &PromptBuilder{
		estimator: estimator,
		logger:    logger,
	}
}

// BuildQueryPrompt 构造问答 Prompt
func (b *PromptBuilder) BuildQueryPrompt(question string, contextChunks []domainRAG.SearchHit) string {
	prompt := "You are a specialized AI Assistant for the 'Physical AI Humanoid Robotics' textbook. " +
		"Your knowledge is strictly limited to the provided context. " +
		"Do NOT use any outside knowledge or training data. " +
		"If the answer to the user's question is not directly present in the context below, " +
		"you MUST reply: '" + RefusalMessage + "'\n\n" +
		"Context:\n" + buildContextText(contextChunks) + "\n\n" +
		"Question: " + question + "\nAnswer:"

	b.logPromptSize("query", prompt)
	return prompt
}

// BuildChatPrompt 构造对话 Prompt
func (b *PromptBuilder) BuildChatPrompt(question string, history []domainRAG.ChatMessage, contextChunks []domainRAG.SearchHit) string {
	var historyText strings.Builder
	for _, msg := range history {
		label := "Assistant"
		if msg.Role == domainRAG.RoleUser {
			label = "User"
		}
		historyText.WriteString(label)
		historyText.WriteString(": ")
		historyText.WriteString(msg.Content)
		historyText.WriteString("\n")
	}

	prompt := "SYSTEM INSTRUCTION: You are a strict RAG Chatbot for the 'Physical AI Humanoid Robotics' textbook. " +
		"Use ONLY the provided context below. Ignore your base training data. " +
		"If the answer is not found in the context, refuse to answer.\n" +
		"If the info is missing, say: '" + RefusalMessage + "'\n\n" +
		"Context from book:\n" + buildContextText(contextChunks) + "\n\n" +
		"--- Chat History ---\n" +
		historyText.String() + "\n" +
		"User: " + question + "\n" +
		"Assistant (Strictly from Context):"

	b.logPromptSize("chat", prompt)
	return prompt
}

// BuildTranslatePrompt 构造翻译 Prompt
func (b *PromptBuilder) BuildTranslatePrompt(text, targetLanguage string) string {
	prompt := fmt.Sprintf("Translate the following text into %s. Provide only the translation.\n\nText: %s",
		targetLanguage, text)

	b.logPromptSize("translate", prompt)
	return prompt
}

// buildContextText 拼接上下文片段
func buildContextText(chunks []domainRAG.SearchHit) string {
	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = fmt.Sprintf("Source: %s\nContent: %s", chunk.Source, chunk.Content)
	}
	return strings.Join(parts, "\n\n")
}

// logPromptSize 记录 Prompt 的 Token 估算
func (b *PromptBuilder) logPromptSize(kind, prompt string) {
	if b.estimator == nil {
		return
	}
	b.logger.Debug("Prompt built",
		"kind", kind,
		"estimated_tokens", b.estimator.CountTokens(prompt),
	)
}
