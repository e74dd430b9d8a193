package user

import (
	"errors"
	"time"
)

// User 注册用户
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Experience   string
	PasswordHash string
	CreatedAt    time.Time
}

var (
	// ErrEmailTaken 邮箱已被注册
	ErrEmailTaken = errors.New("email already registered")

	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
)
