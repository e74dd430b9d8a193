package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookrag/backend/internal/infrastructure/config"
	"github.com/bookrag/backend/internal/infrastructure/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupAuthRouter 创建测试路由
func setupAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()

	cfg := &config.Config{}
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")

	db, err := storage.OpenDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users, err := storage.NewUserRepository(db)
	require.NoError(t, err)

	handler := NewAuthHandler(users)

	router := gin.New()
	api := router.Group("/api/v1")
	{
		api.POST("/signup", handler.Signup)
		api.POST("/login", handler.Login)
	}
	return router
}

func signupBody(t *testing.T, email string) *bytes.Buffer {
	t.Helper()

	body, err := json.Marshal(map[string]string{
		"name":       "Ada",
		"email":      email,
		"phone":      "123456",
		"experience": "beginner",
		"password":   "secret123",
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func postLogin(router *gin.Engine, username, password string) *httptest.ResponseRecorder {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_SignupAndLogin(t *testing.T) {
	router := setupAuthRouter(t)

	// 注册
	req := httptest.NewRequest(http.MethodPost, "/api/v1/signup", signupBody(t, "ada@example.com"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "User created successfully")

	// 登录成功
	w = postLogin(router, "ada@example.com", "secret123")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Ada", response["access_token"])
	assert.Equal(t, "bearer", response["token_type"])
}

func TestAuthHandler_SignupDuplicateEmail(t *testing.T) {
	router := setupAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/signup", signupBody(t, "ada@example.com"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/signup", signupBody(t, "ada@example.com"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email already registered")
}

func TestAuthHandler_SignupMissingFields(t *testing.T) {
	router := setupAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/signup", bytes.NewBufferString(`{"name":"Ada"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_LoginWrongPassword(t *testing.T) {
	router := setupAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/signup", signupBody(t, "ada@example.com"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postLogin(router, "ada@example.com", "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Incorrect email or password")
}

func TestAuthHandler_LoginUnknownUser(t *testing.T) {
	router := setupAuthRouter(t)

	w := postLogin(router, "nobody@example.com", "whatever")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Incorrect email or password")
}
