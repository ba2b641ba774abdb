package health

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/proxy"

	"github.com/railgun-community/broadcaster-directory/pkg/metrics"
)

// Checker probes the Waku node's REST health endpoint. The directory keeps
// working from cache while the node is down; the probe only feeds /healthz
// and the gauge.
type Checker struct {
	NodeURL string
	Timeout time.Duration
	Logger  *zap.Logger

	client *http.Client
	up     atomic.Bool
}

func New(nodeURL, socksProxy string, timeout time.Duration, logger *zap.Logger) (*Checker, error) {
	tr := &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     60 * time.Second,
		TLSHandshakeTimeout: 8 * time.Second,
	}
	if socksProxy != "" {
		dialer, err := proxy.SOCKS5("tcp", socksProxy, nil, proxy.Direct)
		if err != nil {
			return nil, err
		}
		tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return &Checker{
		NodeURL: nodeURL,
		Timeout: timeout,
		Logger:  logger,
		client:  &http.Client{Transport: tr, Timeout: timeout},
	}, nil
}

// Check probes the node once and records the result.
func (c *Checker) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.NodeURL+"/health", nil)
	if err != nil {
		c.record(false)
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.record(false)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	ok := resp.StatusCode == http.StatusOK
	c.record(ok)
	return ok
}

// Healthy reports the last probe result.
func (c *Checker) Healthy() bool { return c.up.Load() }

func (c *Checker) record(ok bool) {
	was := c.up.Swap(ok)
	if ok {
		metrics.NodeHealthy.Set(1)
	} else {
		metrics.NodeHealthy.Set(0)
	}
	if was != ok {
		c.Logger.Info("node_health_changed", zap.Bool("healthy", ok))
	}
}

// Loop probes on the interval until ctx is done.
func (c *Checker) Loop(ctx context.Context, interval time.Duration) {
	c.Check(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Check(ctx)
		}
	}
}
