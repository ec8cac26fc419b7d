package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/lsmpricer/config"
	"github.com/wyfcoding/lsmpricer/health"
	"github.com/wyfcoding/lsmpricer/metrics"
	"github.com/wyfcoding/lsmpricer/middleware"
	"github.com/wyfcoding/lsmpricer/pricing"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	var cfg config.Config
	require.NoError(t, config.Load("", &cfg))
	cfg.Pricing.Paths = 500
	cfg.Pricing.Steps = 10
	cfg.Log.Level = "error"
	return &cfg
}

func testRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *metrics.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m := metrics.NewMetrics("test")
	engine := NewRouter(cfg, RouterDeps{
		Logger:  quietLogger(),
		Metrics: m,
		Health:  health.NewRegistry(cfg.Server.Name, "test", 0),
		Service: pricing.NewService(cfg.Pricing, pricing.WithLogger(quietLogger()), pricing.WithMetrics(m)),
	})
	return engine, m
}

const putBody = `{"type":"put","spot":36,"strike":40,"maturity":1,"rate":0.06,"volatility":0.2}`

func doPost(engine http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRouterRoutes(t *testing.T) {
	cfg := testConfig(t)
	engine, _ := testRouter(t, cfg)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"UP"`)

	w = doPost(engine, "/v1/options/american", putBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	assert.Contains(t, w.Body.String(), `"price"`)

	w = doPost(engine, "/v1/options/american", `{"type":"put"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lsm_pricings_total")
	assert.Contains(t, w.Body.String(), "http_server_requests_total")
}

func TestRouterPropagatesRequestID(t *testing.T) {
	engine, _ := testRouter(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.HeaderXRequestID, "req-42")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(middleware.HeaderXRequestID))
}

func TestRouterRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Rate = 1
	cfg.RateLimit.Burst = 1
	engine, _ := testRouter(t, cfg)

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Contains(t, codes[1:], http.StatusTooManyRequests)
}

func TestRouterMaxBody(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.HTTP.MaxBodyBytes = 16
	engine, _ := testRouter(t, cfg)

	w := doPost(engine, "/v1/options/american", putBody)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRouterSeparateMetricsAddr(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Addr = "127.0.0.1:0"
	engine, _ := testRouter(t, cfg)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBuilderBuildsRunnableApp(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.HTTP.Addr = "127.0.0.1"
	cfg.Server.HTTP.Port = 0
	cfg.Cache.MaxSizeMB = 1

	a, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Run() }()
	time.Sleep(50 * time.Millisecond)
	a.Shutdown()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestRouterBatch(t *testing.T) {
	engine, _ := testRouter(t, testConfig(t))

	var body bytes.Buffer
	body.WriteString(`{"requests":[` + putBody + `,{"type":"call","spot":-1,"strike":1,"maturity":1,"volatility":0.2}]}`)
	w := doPost(engine, "/v1/options/batch", body.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"succeeded":1`)
	assert.Contains(t, w.Body.String(), `"failed":1`)
}
