package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func accessLog(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	for _, entry := range recorded.All() {
		if entry.Message == "HTTP Request" {
			return entry
		}
	}
	t.Fatal("no access log entry recorded")
	return observer.LoggedEntry{}
}

func serveOne(handler gin.HandlerFunc, middlewares ...gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middlewares...)
	router.GET("/parts", handler)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/parts", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGinMiddlewareLevelsByStatus(t *testing.T) {
	cases := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{http.StatusBadGateway, zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		core, recorded := observer.New(zapcore.DebugLevel)
		w := serveOne(func(c *gin.Context) {
			c.JSON(tc.status, gin.H{})
		}, GinMiddleware(zap.New(core)))

		assert.Equal(t, tc.status, w.Code)
		assert.Equal(t, tc.level, accessLog(t, recorded).Level)
	}
}

func TestGinMiddlewareCarriesRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	setID := func(c *gin.Context) {
		c.Set("request_id", "req-abc-1")
		c.Next()
	}
	serveOne(func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	}, setID, GinMiddleware(zap.New(core)))

	entry := accessLog(t, recorded)
	found := false
	for _, field := range entry.Context {
		if field.Key == "request_id" {
			found = true
			assert.Equal(t, "req-abc-1", field.String)
		}
	}
	assert.True(t, found)
}

func TestGinMiddlewarePropagatesContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	setID := func(c *gin.Context) {
		c.Set("request_id", "req-ctx-9")
		c.Next()
	}

	var ctxRequestID string
	serveOne(func(c *gin.Context) {
		ctxRequestID = GetRequestID(c.Request.Context())
		FromContext(c.Request.Context()).Info("inside handler")
		c.JSON(http.StatusOK, gin.H{})
	}, setID, GinMiddleware(zap.New(core)))

	// downstream layers read the ID and logger from the request context
	assert.Equal(t, "req-ctx-9", ctxRequestID)
	inner := recorded.FilterMessage("inside handler").All()
	require.Len(t, inner, 1)
	found := false
	for _, field := range inner[0].Context {
		if field.Key == "request_id" {
			found = true
			assert.Equal(t, "req-ctx-9", field.String)
		}
	}
	assert.True(t, found)
}

func TestGinMiddlewareLogsFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/parts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/parts?sku=BRG-6204", nil)
	req.Header.Set("User-Agent", "partsdesk-cli/1.0")
	router.ServeHTTP(w, req)

	entry := accessLog(t, recorded)
	keys := make(map[string]zap.Field)
	for _, field := range entry.Context {
		keys[field.Key] = field
	}
	for _, want := range []string{"status", "latency", "client_ip", "user_agent", "method", "path", "query"} {
		assert.Contains(t, keys, want)
	}
	assert.Contains(t, keys["query"].String, "sku=BRG-6204")
}

func TestGinMiddlewareQuietsProbes(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, zapcore.DebugLevel, accessLog(t, recorded).Level)
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)

	var w *httptest.ResponseRecorder
	assert.NotPanics(t, func() {
		w = serveOne(func(c *gin.Context) {
			panic("exploded")
		}, Recovery(zap.New(core)))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	logs := recorded.All()
	require.NotEmpty(t, logs)
	assert.Equal(t, "Panic recovered", logs[0].Message)
}
