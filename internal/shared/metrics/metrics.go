package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors do cliente, registrados no registry default em init.
var (
	FeedConnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "toto_feed_connects_total",
		Help: "conexões abertas com o feed de odds",
	})
	FeedReconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "toto_feed_reconnects_total",
		Help: "reconexões agendadas após falha do feed",
	})
	FeedFrames = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "toto_feed_frames_total",
		Help: "frames recebidos do feed por tipo",
	}, []string{"kind"})
	FallbackRefetches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "toto_detail_fallback_refetches_total",
		Help: "recargas completas disparadas por update sem opção conhecida",
	})
	OptimisticRollbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "toto_detail_optimistic_rollbacks_total",
		Help: "mutações otimistas revertidas por falha",
	}, []string{"action"})
	PageFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "toto_list_page_fetches_total",
		Help: "buscas de página da lista por resultado",
	}, []string{"outcome"})
	RelayPublishes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "toto_relay_publishes_total",
		Help: "snapshots de odds repassados pelo relay por resultado",
	}, []string{"outcome"})
	EventProgress = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "toto_event_progress_percent",
		Help: "fração decorrida do evento observado (0..100)",
	})

	// simulador local
	SimConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "toto_sim_ws_connections",
		Help: "clientes WebSocket conectados ao simulador",
	})
	SimFramesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "toto_sim_ws_frames_sent_total",
		Help: "frames de odds enviados pelo simulador",
	})
)

func init() {
	prometheus.MustRegister(
		FeedConnects,
		FeedReconnects,
		FeedFrames,
		FallbackRefetches,
		OptimisticRollbacks,
		PageFetches,
		RelayPublishes,
		EventProgress,
		SimConnections,
		SimFramesSent,
	)
}
