package rag

import (
	"sync"
	"time"

	"github.com/google/uuid"

	domainRAG "github.com/bookrag/backend/internal/domain/rag"
)

// chatSession 单个对话会话
type chatSession struct {
	history  []domainRAG.ChatMessage
	lastSeen time.Time
}

// SessionStore 对话会话存储
// 进程内存储，按会话隔离历史；空闲超过 TTL 的会话在访问时惰性清除，
// 不引入后台 goroutine。
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*chatSession
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore 创建会话存储
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{
		sessions: make(map[string]*chatSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetOrCreate 获取或创建会话
// id 为空或会话不存在/已过期时分配新会话，返回生效的会话 ID
func (s *SessionStore) GetOrCreate(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()

	if id != "" {
		if session, ok := s.sessions[id]; ok {
			session.lastSeen = s.now()
			return id
		}
	}

	newID := uuid.New().String()
	s.sessions[newID] = &chatSession{lastSeen: s.now()}
	return newID
}

// Append 追加一条消息到会话历史
func (s *SessionStore) Append(id string, msg domainRAG.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		session = &chatSession{}
		s.sessions[id] = session
	}
	session.history = append(session.history, msg)
	session.lastSeen = s.now()
}

// History 返回会话历史的副本
func (s *SessionStore) History(id string) []domainRAG.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil
	}

	history := make([]domainRAG.ChatMessage, len(session.history))
	copy(history, session.history)
	return history
}

// Len 返回存活会话数
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()
	return len(s.sessions)
}

// evictExpiredLocked 清除空闲超过 TTL 的会话
// 调用方必须持有写锁
func (s *SessionStore) evictExpiredLocked() {
	cutoff := s.now().Add(-s.ttl)
	for id, session := range s.sessions {
		if session.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
