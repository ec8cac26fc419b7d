package pricing

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/lsmpricer/middleware"
	"github.com/wyfcoding/lsmpricer/xerrors"
)

type envelope struct {
	Code   int             `json:"code"`
	Msg    string          `json:"msg"`
	Detail string          `json:"detail"`
	Data   json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.HTTPErrorHandler())
	NewHandler(NewService(testConfig(), WithLogger(quietLogger()))).RegisterRoutes(r)
	return r
}

func post(t *testing.T, r http.Handler, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestHandlerPriceAmerican(t *testing.T) {
	r := newTestRouter(t)

	req := benchmarkPut()
	req.Paths = 1000
	req.Steps = 10
	w, env := post(t, r, "/v1/options/american", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "put", resp.Type)
	assert.True(t, resp.Price.IsPositive())
	assert.Equal(t, 1000, resp.Paths)
}

func TestHandlerRejectsInvalidInput(t *testing.T) {
	r := newTestRouter(t)

	w, env := post(t, r, "/v1/options/american", `{"type": "put", "spot":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, xerrors.ErrInvalidInput.Code, env.Code)

	bad := benchmarkPut()
	bad.Maturity = 0
	w, env = post(t, r, "/v1/options/american", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, xerrors.ErrInvalidParameter.Code, env.Code)

	bad = benchmarkPut()
	bad.Type = "binary"
	w, env = post(t, r, "/v1/options/american", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, xerrors.ErrInvalidOptionType.Code, env.Code)
}

func TestHandlerPriceBatch(t *testing.T) {
	r := newTestRouter(t)

	ok := benchmarkPut()
	ok.Paths = 500
	ok.Steps = 10
	bad := ok
	bad.Spot = -5

	w, env := post(t, r, "/v1/options/batch", BatchRequest{Requests: []Request{ok, bad}})
	require.Equal(t, http.StatusOK, w.Code)

	var out BatchResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 1, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	require.Len(t, out.Items, 2)
	assert.NotNil(t, out.Items[0].Result)
	require.NotNil(t, out.Items[1].Error)
	assert.Equal(t, xerrors.ErrInvalidParameter.Code, out.Items[1].Error.Code)

	w, env = post(t, r, "/v1/options/batch", BatchRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, xerrors.ErrEmptyData.Code, env.Code)
}
