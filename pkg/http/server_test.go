package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
}

func TestServerStartServeStop(t *testing.T) {
	s := NewServer(pingHandler{}, WithHost("127.0.0.1"), WithPort(0))
	require.NoError(t, s.Start())
	base := "http://" + s.Addr()

	res, err := http.Get(base + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "pong")

	res, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestServerStartReportsBindFailure(t *testing.T) {
	first := NewServer(nil, WithHost("127.0.0.1"), WithPort(0), WithMetricsPath(""))
	require.NoError(t, first.Start())
	defer first.Stop(context.Background())

	_, p, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(p)
	require.NoError(t, err)
	second := NewServer(nil, WithHost("127.0.0.1"), WithPort(port), WithMetricsPath(""))
	assert.Error(t, second.Start())
}
