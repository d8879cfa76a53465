package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct {
	lastCtx  context.Context
	lastMsg  string
	lastArgs []any
}

func (m *mockLogger) Info(ctx context.Context, msg string, args ...any) {
	m.lastCtx = ctx
	m.lastMsg = msg
	m.lastArgs = args
}

func (m *mockLogger) Error(context.Context, string, ...any) {}
func (m *mockLogger) Warn(context.Context, string, ...any)  {}
func (m *mockLogger) Debug(context.Context, string, ...any) {}

func (m *mockLogger) field(key string) any {
	for i := 0; i < len(m.lastArgs)-1; i += 2 {
		if k, ok := m.lastArgs[i].(string); ok && k == key {
			return m.lastArgs[i+1]
		}
	}
	return nil
}

type httpCall struct {
	method, route string
	status        int
}

type metricsSpy struct{ calls []httpCall }

func (m *metricsSpy) ObserveHTTPRequest(method, route string, status int, _ time.Duration) {
	m.calls = append(m.calls, httpCall{method, route, status})
}

func TestRequestLogger_LogsExpectedFields(t *testing.T) {
	logger := &mockLogger{}
	spy := &metricsSpy{}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/categories", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/categories")

	h := RequestLogger(logger, spy)(func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	})
	require.NoError(t, h(c))

	assert.Equal(t, "http request", logger.lastMsg)
	for _, key := range []string{"method", "path", "route_pattern", "duration"} {
		assert.NotNil(t, logger.field(key), key)
	}
	assert.Equal(t, http.StatusCreated, logger.field("status"))
	assert.Equal(t, []httpCall{{http.MethodPost, "/categories", http.StatusCreated}}, spy.calls)
}

func TestRequestLogger_StatusFromReturnedError(t *testing.T) {
	logger := &mockLogger{}
	spy := &metricsSpy{}
	e := echo.New()

	for _, tc := range []struct {
		err  error
		want int
	}{
		{echo.NewHTTPError(http.StatusNotFound), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/nowhere", nil), httptest.NewRecorder())
		err := RequestLogger(logger, spy)(func(echo.Context) error { return tc.err })(c)
		assert.Equal(t, tc.err, err)
		assert.Equal(t, tc.want, logger.field("status"))
	}
	require.Len(t, spy.calls, 2)
}

func TestRequestLogger_NilMetrics(t *testing.T) {
	logger := &mockLogger{}
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), httptest.NewRecorder())

	h := RequestLogger(logger, nil)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	assert.Equal(t, "http request", logger.lastMsg)
}

func TestRequestLogger_PassesContextWithXRaySegment(t *testing.T) {
	logger := &mockLogger{}
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := XRayMiddleware("catalog-test")(RequestLogger(logger, nil)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))
	require.NoError(t, h(c))

	assert.NotNil(t, xray.GetSegment(logger.lastCtx))
}
