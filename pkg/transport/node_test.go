package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestNode(t *testing.T, handler http.HandlerFunc) *NodeClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewNodeClient(srv.URL, "", 2*time.Second, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNodeClient_Send(t *testing.T) {
	var gotTopic string
	var gotPayload []byte
	c := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/relay/v1/auto/messages", r.URL.Path)
		var rm restMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rm))
		gotTopic = rm.ContentTopic
		gotPayload, _ = base64.StdEncoding.DecodeString(rm.Payload)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.Send(context.Background(), topic, []byte("hello")))
	require.Equal(t, topic, gotTopic)
	require.Equal(t, []byte("hello"), gotPayload)
}

func TestNodeClient_SendFailureIsTransportError(t *testing.T) {
	c := newTestNode(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := c.Send(context.Background(), topic, []byte("x"))
	var te *Error
	require.ErrorAs(t, err, &te)
	require.Equal(t, "send", te.Op)
}

func TestNodeClient_HistoricalCursor(t *testing.T) {
	var calls atomic.Int64
	c := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/store/v3/messages", r.URL.Path)
		q := r.URL.Query()
		switch calls.Add(1) {
		case 1:
			require.NotEmpty(t, q.Get("startTime"), "first call uses the look-back window")
			require.Empty(t, q.Get("cursor"))
			_ = json.NewEncoder(w).Encode(storePage{
				Messages: []restMessage{{
					Payload:      base64.StdEncoding.EncodeToString([]byte("old")),
					ContentTopic: topic,
					Timestamp:    time.Now().UnixMilli(),
				}},
				Cursor: "c1",
			})
		default:
			require.Equal(t, "c1", q.Get("cursor"), "later calls resume from the cursor")
			_ = json.NewEncoder(w).Encode(storePage{})
		}
	})

	ctx := context.Background()
	first, err := c.RetrieveHistorical(ctx, topic)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, []byte("old"), first[0].Payload)

	second, err := c.RetrieveHistorical(ctx, topic)
	require.NoError(t, err)
	require.Empty(t, second)

	// empty cursor in the response must not rewind to the window
	_, err = c.RetrieveHistorical(ctx, topic)
	require.NoError(t, err)
	require.Equal(t, int64(3), calls.Load())
}

func TestNodeClient_HistoricalSinglePageAdvances(t *testing.T) {
	ts := time.Now().UnixMilli()
	var calls atomic.Int64
	c := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch calls.Add(1) {
		case 1:
			// single-page answer: messages, no cursor
			_ = json.NewEncoder(w).Encode(storePage{
				Messages: []restMessage{{
					Payload:      base64.StdEncoding.EncodeToString([]byte("m1")),
					ContentTopic: topic,
					Timestamp:    ts,
				}},
			})
		default:
			require.Empty(t, q.Get("cursor"))
			require.Equal(t, strconv.FormatInt(ts+1, 10), q.Get("startTime"),
				"resumes just past the newest delivered message")
			_ = json.NewEncoder(w).Encode(storePage{})
		}
	})

	ctx := context.Background()
	first, err := c.RetrieveHistorical(ctx, topic)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := c.RetrieveHistorical(ctx, topic)
	require.NoError(t, err)
	require.Empty(t, second, "the same message must not be delivered twice")
}
