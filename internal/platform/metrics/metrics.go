package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quando_pode_polls_created_total",
		Help: "Enquetes criadas por tipo de voto",
	}, []string{"vote_type"})

	authRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quando_pode_auth_requests_total",
		Help: "Requisicoes de autenticacao de participante por resultado",
	}, []string{"result"})

	voteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quando_pode_vote_requests_total",
		Help: "Requisicoes de voto recebidas por status",
	}, []string{"status"})

	voteTxDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quando_pode_vote_tx_duration_seconds",
		Help:    "Tempo da transacao que reescreve o ledger de uma enquete",
		Buckets: prometheus.DefBuckets,
	})

	pollCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quando_pode_poll_cache_total",
		Help: "Leituras do cache de enquetes por resultado",
	}, []string{"result"})

	activityProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quando_pode_activity_processed_total",
		Help: "Eventos de atividade processados pelo worker",
	}, []string{"kind"})

	activityProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quando_pode_activity_processing_duration_seconds",
		Help:    "Tempo para processar um evento de atividade no worker",
		Buckets: prometheus.DefBuckets,
	})

	activityQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quando_pode_activity_queue_depth",
		Help: "Eventos de atividade aguardando na fila",
	})
)

func IncPollCreated(voteType string) {
	pollsCreatedTotal.WithLabelValues(voteType).Inc()
}

func ObserveAuthRequest(result string) {
	authRequestsTotal.WithLabelValues(result).Inc()
}

func ObserveVoteRequest(status string) {
	voteRequestsTotal.WithLabelValues(status).Inc()
}

func ObserveVoteTxDuration(seconds float64) {
	voteTxDuration.Observe(seconds)
}

func ObservePollCache(result string) {
	pollCacheTotal.WithLabelValues(result).Inc()
}

func IncActivityProcessed(kind string) {
	activityProcessedTotal.WithLabelValues(kind).Inc()
}

func ObserveActivityProcessing(seconds float64) {
	activityProcessingDuration.Observe(seconds)
}

func SetActivityQueueDepth(n int64) {
	activityQueueDepth.Set(float64(n))
}
