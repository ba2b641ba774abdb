package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCheck_NodeUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "", 2*time.Second, zap.NewNop())
	require.NoError(t, err)
	require.True(t, c.Check(context.Background()))
	require.True(t, c.Healthy())
}

func TestCheck_NodeDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "", 2*time.Second, zap.NewNop())
	require.NoError(t, err)
	require.False(t, c.Check(context.Background()))
	require.False(t, c.Healthy())
}
