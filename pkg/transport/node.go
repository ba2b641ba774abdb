package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/proxy"
)

// NodeClient talks to a Waku node's REST API: relay publish, filter-style
// subscription via polling, and store queries for historical retrieval.
// SocksProxy, when set, routes every request through a SOCKS5 endpoint
// (typically a local Tor daemon).
type NodeClient struct {
	BaseURL      string
	PollInterval time.Duration
	Lookback     time.Duration
	Logger       *zap.Logger

	client *http.Client

	mu        sync.Mutex
	positions map[string]storePosition
}

// storePosition is where the next store query for a topic resumes from.
// The node's opaque cursor is preferred; sinceMs covers responses that carry
// messages but no cursor, where the query restarts just past the newest
// message already delivered.
type storePosition struct {
	cursor  string
	sinceMs int64
}

func NewNodeClient(baseURL, socksProxy string, timeout time.Duration, logger *zap.Logger) (*NodeClient, error) {
	tr := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     60 * time.Second,
		TLSHandshakeTimeout: 8 * time.Second,
	}
	if socksProxy != "" {
		dialer, err := proxy.SOCKS5("tcp", socksProxy, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks5 dialer: %w", err)
		}
		tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return &NodeClient{
		BaseURL:      baseURL,
		PollInterval: time.Second,
		Lookback:     DefaultLookback,
		Logger:       logger,
		client:       &http.Client{Transport: tr, Timeout: timeout},
		positions:    map[string]storePosition{},
	}, nil
}

type restMessage struct {
	Payload      string `json:"payload"` // base64
	ContentTopic string `json:"contentTopic"`
	Timestamp    int64  `json:"timestamp,omitempty"`
}

type storePage struct {
	Messages []restMessage `json:"messages"`
	Cursor   string        `json:"cursor,omitempty"`
}

func (m restMessage) decode() (Message, error) {
	payload, err := base64.StdEncoding.DecodeString(m.Payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Payload: payload, ContentTopic: m.ContentTopic, Timestamp: m.Timestamp}, nil
}

// Send publishes on the topic through the node's relay endpoint.
func (c *NodeClient) Send(ctx context.Context, contentTopic string, payload []byte) error {
	body, _ := json.Marshal(restMessage{
		Payload:      base64.StdEncoding.EncodeToString(payload),
		ContentTopic: contentTopic,
		Timestamp:    time.Now().UnixMilli(),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/relay/v1/auto/messages", bytes.NewReader(body))
	if err != nil {
		return &Error{Op: "send", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Op: "send", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Op: "send", Err: fmt.Errorf("node returned %s", resp.Status)}
	}
	return nil
}

// Subscribe polls the node's store for new messages on each topic and hands
// them to h in arrival order per topic. Cancelling the subscription stops the
// polling goroutine.
func (c *NodeClient) Subscribe(ctx context.Context, contentTopics []string, h Handler) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()

	go func() {
		t := time.NewTicker(c.PollInterval)
		defer t.Stop()
		for {
			select {
			case <-subCtx.Done():
				return
			case <-t.C:
			}
			for _, topic := range contentTopics {
				msgs, err := c.RetrieveHistorical(subCtx, topic)
				if err != nil {
					if c.Logger != nil {
						c.Logger.Warn("subscription_poll_failed", zap.String("topic", topic), zap.Error(err))
					}
					continue
				}
				for _, msg := range msgs {
					h(msg)
				}
			}
		}
	}()

	return &Subscription{ID: id, cancel: cancel}, nil
}

// RetrieveHistorical queries the node's store. The first call per topic asks
// for the look-back window ending now; later calls resume from the node's
// cursor, or from just past the newest delivered message when the response
// carried none, so nothing is delivered twice.
func (c *NodeClient) RetrieveHistorical(ctx context.Context, contentTopic string) ([]Message, error) {
	c.mu.Lock()
	pos, seen := c.positions[contentTopic]
	c.mu.Unlock()

	q := url.Values{}
	q.Set("contentTopics", contentTopic)
	q.Set("ascending", "true")
	switch {
	case seen && pos.cursor != "":
		q.Set("cursor", pos.cursor)
	case seen:
		q.Set("startTime", fmt.Sprintf("%d", pos.sinceMs))
	default:
		q.Set("startTime", fmt.Sprintf("%d", time.Now().Add(-c.Lookback).UnixMilli()))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/store/v3/messages?"+q.Encode(), nil)
	if err != nil {
		return nil, &Error{Op: "retrieveHistorical", Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Op: "retrieveHistorical", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Op: "retrieveHistorical", Err: fmt.Errorf("node returned %s", resp.Status)}
	}

	var page storePage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &Error{Op: "retrieveHistorical", Err: err}
	}

	out := make([]Message, 0, len(page.Messages))
	for _, rm := range page.Messages {
		msg, err := rm.decode()
		if err != nil {
			if c.Logger != nil {
				c.Logger.Warn("store_message_undecodable", zap.String("topic", contentTopic), zap.Error(err))
			}
			continue
		}
		out = append(out, msg)
	}

	// Advance the position after any page with messages. A single-page
	// response has no cursor, so record the newest timestamp instead; an
	// empty page keeps the old position rather than rewinding to the
	// look-back window.
	if page.Cursor != "" || len(page.Messages) > 0 {
		c.mu.Lock()
		next := storePosition{cursor: page.Cursor, sinceMs: pos.sinceMs}
		for _, rm := range page.Messages {
			if rm.Timestamp >= next.sinceMs {
				next.sinceMs = rm.Timestamp + 1
			}
		}
		c.positions[contentTopic] = next
		c.mu.Unlock()
	}

	return out, nil
}
