package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital-library-backend/internal/domains/user"
	"digital-library-backend/internal/shared/apperror"
)

type stubAuth struct {
	token string
	user  *user.User
}

func (s stubAuth) Authenticate(_ context.Context, token string) (*user.User, error) {
	if token == "" {
		return nil, &apperror.AuthenticationError{Message: "Token de autenticação não fornecido"}
	}
	if token != s.token {
		return nil, &apperror.AuthenticationError{Message: "Token de autenticação inválido ou expirado"}
	}
	return s.user, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/me", func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.JSON(http.StatusOK, gin.H{"anon": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": u.Email})
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	auth := stubAuth{token: "good", user: &user.User{ID: uuid.New(), Email: "a@b.com"}}
	r := newRouter(AuthMiddleware(auth))

	w := do(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ERRO_AUTENTICACAO", body["codigo"])
	assert.Equal(t, "Token de autenticação não fornecido", body["erro"])

	w = do(r, http.MethodGet, "/me", "bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/me", "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@b.com")
}

func TestOptionalAuthMiddleware(t *testing.T) {
	auth := stubAuth{token: "good", user: &user.User{ID: uuid.New(), Email: "a@b.com"}}
	r := newRouter(OptionalAuthMiddleware(auth))

	assert.Contains(t, do(r, http.MethodGet, "/me", "").Body.String(), "anon")
	assert.Contains(t, do(r, http.MethodGet, "/me", "bad").Body.String(), "anon")
	assert.Contains(t, do(r, http.MethodGet, "/me", "good").Body.String(), "a@b.com")
}

func TestRecoveryUsesErrorEnvelope(t *testing.T) {
	r := newRouter(RequestID(), Recovery())

	w := do(r, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ERRO_INTERNO", body["codigo"])
	assert.Equal(t, "Erro interno do servidor", body["erro"])
}

func TestRequestIDPropagates(t *testing.T) {
	r := newRouter(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = do(r, http.MethodGet, "/me", "")
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(CORS())

	req := httptest.NewRequest(http.MethodOptions, "/me", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
