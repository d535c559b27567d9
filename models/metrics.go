package models

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	appKeyLabel = "app_key"
)

var (
	sessionCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "session_count",
		Help: "The number of scan sessions.",
	}, []string{appKeyLabel})

	sessionCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_count_total",
		Help: "The total number of scan sessions.",
	}, []string{appKeyLabel})

	participantCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "participant_count",
		Help: "The number of participants in scan sessions.",
	})
)

func instrumentIncreaseSessionGauge(appKey string) {
	sessionCount.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Inc()
}

func instrumentDecreaseSessionGauge(appKey string) {
	sessionCount.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Dec()
}

func instrumentCountSession(appKey string) {
	sessionCountTotal.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Inc()
}

func instrumentParticipantCount(delta float64) {
	participantCount.Add(delta)
}
