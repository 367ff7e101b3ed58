package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"bidderpro-backend-go/internal/auth"
	"bidderpro-backend-go/internal/config"
	"bidderpro-backend-go/internal/core"
	"bidderpro-backend-go/internal/models"
)

type stubGate struct {
	session *core.Session
	err     error
}

func (g *stubGate) SignIn(ctx context.Context, name, email string) (*models.UserRecord, bool, error) {
	return nil, false, errors.New("not used")
}

func (g *stubGate) Session(ctx context.Context, email string) (*core.Session, error) {
	return g.session, g.err
}

func (g *stubGate) Status(user *models.UserRecord, now time.Time) core.TrialStatus {
	return core.TrialStatus{}
}

func (g *stubGate) Window() time.Duration { return time.Hour }

func newSessionRouter(t *testing.T, gate core.TrialGate) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens, err := auth.NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)
	token, _, err := tokens.Issue(&models.UserRecord{Email: "ada@example.com", Name: "Ada"})
	require.NoError(t, err)

	router := gin.New()
	mw := NewSessionMiddleware(tokens, gate, zap.NewNop())
	router.GET("/me", mw.RequireSession(), func(c *gin.Context) {
		session, ok := SessionFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, session.User.Email)
	})
	return router, token
}

func serve(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireSession(t *testing.T) {
	session := &core.Session{User: &models.UserRecord{Email: "ada@example.com"}}

	tests := []struct {
		name       string
		gate       *stubGate
		header     func(token string) string
		wantStatus int
	}{
		{"missing header", &stubGate{session: session}, func(string) string { return "" }, http.StatusUnauthorized},
		{"wrong scheme", &stubGate{session: session}, func(tok string) string { return "Basic " + tok }, http.StatusUnauthorized},
		{"bad token", &stubGate{session: session}, func(string) string { return "Bearer nope" }, http.StatusUnauthorized},
		{"valid", &stubGate{session: session}, func(tok string) string { return "Bearer " + tok }, http.StatusOK},
		{"lowercase scheme", &stubGate{session: session}, func(tok string) string { return "bearer " + tok }, http.StatusOK},
		{"user gone", &stubGate{err: core.ErrUserNotFound}, func(tok string) string { return "Bearer " + tok }, http.StatusUnauthorized},
		{"store down", &stubGate{err: core.ErrStoreUnavailable}, func(tok string) string { return "Bearer " + tok }, http.StatusServiceUnavailable},
		{"unexpected", &stubGate{err: errors.New("boom")}, func(tok string) string { return "Bearer " + tok }, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, token := newSessionRouter(t, tt.gate)
			w := serve(router, tt.header(token))
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "ada@example.com", w.Body.String())
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obsCore, logs := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(RequestLogger(zap.New(obsCore)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok?x=1", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/bad", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "x=1", entries[0].ContextMap()["query"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "req-123", entries[1].ContextMap()["request_id"])
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obsCore, logs := observer.New(zapcore.ErrorLevel)
	logger := zap.New(obsCore)

	router := gin.New()
	router.Use(RequestLogger(logger), RecoveryMiddleware(logger))
	router.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Contains(t, w.Body.String(), "Internal Server Error")
	assert.Contains(t, w.Body.String(), "req-42")

	panics := logs.FilterMessage("Handler panicked").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "req-42", panics[0].ContextMap()["request_id"])
	assert.Equal(t, "kaboom", panics[0].ContextMap()["panic"])
	assert.Equal(t, 1, logs.FilterMessage("Incoming Request").Len())
}

func TestRecoveryMiddleware_WithoutRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obsCore, logs := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(RecoveryMiddleware(zap.New(obsCore)))
	router.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "Reference")
	assert.Equal(t, 1, logs.FilterMessage("Handler panicked").Len())
}

func TestCORSMiddleware(t *testing.T) {
	assert.Nil(t, CORSMiddleware(&config.Config{}))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSMiddleware(&config.Config{ClientURL: "http://localhost:3000"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
