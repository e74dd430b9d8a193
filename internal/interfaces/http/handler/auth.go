package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookrag/backend/internal/domain/user"
	"github.com/bookrag/backend/internal/infrastructure/log"
	"github.com/bookrag/backend/internal/infrastructure/storage"
)

// AuthHandler 用户注册登录处理器
type AuthHandler struct {
	users  storage.UserRepository
	logger *slog.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(users storage.UserRepository) *AuthHandler {
	return &AuthHandler{
		users:  users,
		logger: log.NewModuleLogger("http", "auth_handler"),
	}
}

// SignupRequest 注册请求
type SignupRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Experience string `json:"experience" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// Signup 用户注册
// POST /api/v1/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("Failed to hash password", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process password"})
		return
	}

	err = h.users.Create(&user.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Experience:   req.Experience,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		h.logger.Error("Failed to create user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully"})
}

// Login 用户登录
// POST /api/v1/login
// 表单字段沿用 OAuth2 password 流的 username/password，username 为邮箱
func (h *AuthHandler) Login(c *gin.Context) {
	email := c.PostForm("username")
	password := c.PostForm("password")
	if email == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	u, err := h.users.FindByEmail(email)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			h.logger.Error("Failed to look up user", "error", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": u.Name,
		"token_type":   "bearer",
	})
}
