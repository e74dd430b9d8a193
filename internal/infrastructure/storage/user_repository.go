package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bookrag/backend/internal/domain/user"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	Create(u *user.User) error
	FindByEmail(email string) (*user.User, error)
}

// userRepository 用户 SQLite 仓储实现
type userRepository struct {
	db *sql.DB
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository(db *sql.DB) (UserRepository, error) {
	if err := initUserTable(db); err != nil {
		return nil, fmt.Errorf("failed to init users table: %w", err)
	}
	return &userRepository{db: db}, nil
}

// initUserTable 初始化用户表
func initUserTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL,
		experience TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	// 创建索引
	createIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);`

	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	return nil
}

// Create 保存用户，邮箱重复时返回 user.ErrEmailTaken
func (r *userRepository) Create(u *user.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	// 先查重：UNIQUE 约束的驱动错误信息不可移植，显式检查更可靠
	var existing int
	err := r.db.QueryRow(`SELECT COUNT(1) FROM users WHERE email = ?`, u.Email).Scan(&existing)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing > 0 {
		return user.ErrEmailTaken
	}

	query := `
		INSERT INTO users
		(id, name, email, phone, experience, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		u.ID,
		u.Name,
		u.Email,
		u.Phone,
		u.Experience,
		u.PasswordHash,
		u.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// FindByEmail 根据邮箱查找用户，不存在时返回 user.ErrUserNotFound
func (r *userRepository) FindByEmail(email string) (*user.User, error) {
	query := `
		SELECT id, name, email, phone, experience, password_hash, created_at
		FROM users
		WHERE email = ?`

	var u user.User
	var createdAt int64

	err := r.db.QueryRow(query, email).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.Experience,
		&u.PasswordHash,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	u.CreatedAt = time.UnixMilli(createdAt)
	return &u, nil
}

// 编译时检查接口实现
var _ UserRepository = (*userRepository)(nil)
