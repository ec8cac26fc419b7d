package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/lsmpricer/cache"
)

func TestRegistryCheck(t *testing.T) {
	r := NewRegistry("lsmpricer", "v1", 0)

	report := r.Check(context.Background())
	assert.Equal(t, StatusUp, report.Status)
	assert.Empty(t, report.Components)

	r.Register("ok", func(context.Context) error { return nil })
	r.Register("broken", func(context.Context) error { return errors.New("boom") })
	r.Register("ignored", nil)

	report = r.Check(context.Background())
	assert.Equal(t, StatusDown, report.Status)
	assert.Equal(t, StatusUp, report.Components["ok"])
	assert.Equal(t, "DOWN: boom", report.Components["broken"])
	assert.NotContains(t, report.Components, "ignored")
}

func TestRegistryCheckTimeout(t *testing.T) {
	r := NewRegistry("lsmpricer", "", 10*time.Millisecond)
	r.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	report := r.Check(context.Background())
	assert.Equal(t, StatusDown, report.Status)
	assert.Contains(t, report.Components["slow"], "deadline exceeded")
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRegistry("lsmpricer", "v1", 0)
	engine := gin.New()
	engine.GET("/health", r.Handler())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var report Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, StatusUp, report.Status)
	assert.Equal(t, "lsmpricer", report.Service)

	r.Register("broken", func(context.Context) error { return errors.New("down") })
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCacheChecker(t *testing.T) {
	c, err := cache.NewBigCache(context.Background(), time.Minute, 1)
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, CacheChecker(c)(context.Background()))
	assert.Error(t, CacheChecker(nil)(context.Background()))
}
