package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitledger/inventory-backend/internal/auth/middleware"
	"github.com/unitledger/inventory-backend/internal/auth/repository"
	"github.com/unitledger/inventory-backend/internal/auth/service"
	"github.com/unitledger/inventory-backend/internal/testutil"
)

type authResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
	User    struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	client, _ := testutil.SetupTestRedis(t)
	svc := service.NewAuthService(repository.NewUserRepository(client), "test-secret", time.Hour)

	r := gin.New()
	New(svc).Register(r.Group("/api/auth"), middleware.Authenticate(svc))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, authResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var resp authResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	return rr, resp
}

func TestRegisterLoginMe(t *testing.T) {
	r := setupRouter(t)

	rr, resp := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"email": "dev@example.com", "password": "secret1", "first_name": "Dana", "role": "DEVELOPER",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "DEVELOPER", resp.User.Role)

	rr, _ = doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"email": "dev@example.com", "password": "secret1", "role": "DEVELOPER",
	}, "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr, resp = doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email": "dev@example.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	token := resp.Token

	rr, resp = doJSON(t, r, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "dev@example.com", resp.User.Email)

	rr, _ = doJSON(t, r, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRegisterValidation(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"missing fields", gin.H{"email": "a@example.com"}, http.StatusBadRequest},
		{"unknown role", gin.H{"email": "a@example.com", "password": "secret1", "role": "BUYER"}, http.StatusBadRequest},
		{"short password", gin.H{"email": "a@example.com", "password": "123", "role": "AGENT"}, http.StatusBadRequest},
		{"bad email", gin.H{"email": "nope", "password": "secret1", "role": "AGENT"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, resp := doJSON(t, r, http.MethodPost, "/api/auth/register", tt.body, "")
			assert.Equal(t, tt.want, rr.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	r := setupRouter(t)
	rr, _ := doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{"email": "x@example.com", "password": "whatever"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
