package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Broadcasters = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "bfd_broadcasters_total", Help: "Known broadcasters"},
	)
	FeeEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "bfd_fee_entries_total", Help: "Live (token, broadcaster) fee entries"},
	)
	FeeMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bfd_fee_messages_total", Help: "Fee messages by ingest outcome"},
		[]string{"result"},
	)
	HistoricalMessages = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bfd_historical_messages_total", Help: "Messages replayed from the store"},
	)
	NodeHealthy = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "bfd_node_healthy", Help: "1 when the Waku node answers its health probe"},
	)
	WSConnected = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bfd_ws_connected_total", Help: "Total fee-stream WebSocket connections"},
	)
	WSError = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bfd_ws_errors_total", Help: "Fee-stream WebSocket errors"},
	)
)

func Init() {
	prometheus.MustRegister(Broadcasters, FeeEntries, FeeMessages, HistoricalMessages)
	prometheus.MustRegister(NodeHealthy, WSConnected, WSError)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
