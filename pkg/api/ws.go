package api

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/railgun-community/broadcaster-directory/pkg/feemsg"
	"github.com/railgun-community/broadcaster-directory/pkg/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// FeeUpdate is one event on the /ws/fees stream.
type FeeUpdate struct {
	RailgunAddress string            `json:"railgunAddress"`
	FeesID         string            `json:"feesID"`
	Fees           map[string]string `json:"fees"`
	FeeExpiration  int64             `json:"feeExpiration"`
	Reliability    float64           `json:"reliability"`
}

// WS fans directory updates out to connected wallet UIs. Slow clients are
// dropped rather than backing up the feed.
type WS struct {
	Logger *zap.Logger

	mu      sync.Mutex
	clients map[string]chan FeeUpdate
}

func NewWS(logger *zap.Logger) *WS {
	return &WS{Logger: logger, clients: map[string]chan FeeUpdate{}}
}

// OnUpdate is wired into the feed's accepted-announcement hook.
func (s *WS) OnUpdate(ann *feemsg.FeeAnnouncement) {
	update := FeeUpdate{
		RailgunAddress: ann.RailgunAddress,
		FeesID:         ann.FeesID,
		Fees:           ann.Fees,
		FeeExpiration:  ann.FeeExpiration,
		Reliability:    ann.Reliability,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.clients {
		select {
		case ch <- update:
		default:
			s.Logger.Warn("ws_client_lagging", zap.String("client", id))
		}
	}
}

func (s *WS) ServeWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		s.Logger.Warn("ws_upgrade_failed", zap.Error(err))
		metrics.WSError.Inc()
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	ch := make(chan FeeUpdate, 16)
	s.mu.Lock()
	s.clients[id] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, id)
		s.mu.Unlock()
	}()

	metrics.WSConnected.Inc()
	s.Logger.Info("ws_client_connected", zap.String("client", id))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			s.Logger.Info("ws_client_disconnected", zap.String("client", id))
			return
		case update := <-ch:
			if err := conn.WriteJSON(update); err != nil {
				s.Logger.Warn("ws_write_error", zap.String("client", id), zap.Error(err))
				metrics.WSError.Inc()
				return
			}
		}
	}
}
