package loggingmw

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopcarts/internal/logging"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, ln := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if ln == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(ln), &m))
		out = append(out, m)
	}
	return out
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logging.NewWithWriter(&buf, "shopcarts", "debug")

	e := echo.New()
	e.Use(RequestLogger(base))
	e.GET("/shopcarts/:owner_id", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Info("inside")
		return c.NoContent(http.StatusOK)
	})
	e.GET("/missing/:owner_id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	})

	req := httptest.NewRequest(http.MethodGet, "/shopcarts/7", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	e.ServeHTTP(httptest.NewRecorder(), req)

	got := lines(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, "inside", got[0]["msg"])
	assert.Equal(t, "7", got[0]["owner_id"])
	assert.Equal(t, "rid-1", got[0]["request_id"])
	assert.Equal(t, "shopcarts", got[0]["service"])
	assert.Equal(t, "request completed", got[1]["msg"])
	assert.Equal(t, "INFO", got[1]["level"])
	assert.EqualValues(t, 200, got[1]["status"])

	buf.Reset()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	got = lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "WARN", got[0]["level"])
	assert.EqualValues(t, 404, got[0]["status"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", logging.ParseLevel("debug").String())
	assert.Equal(t, "WARN", logging.ParseLevel(" Warning ").String())
	assert.Equal(t, "ERROR", logging.ParseLevel("error").String())
	assert.Equal(t, "INFO", logging.ParseLevel("").String())
}
