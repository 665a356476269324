// SPDX-License-Identifier: MIT

package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fileRequestsDeniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zi2anki_file_requests_denied_total",
		Help: "Number of file requests denied for security reasons",
	}, []string{"reason"})

	fileRequestsAllowedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zi2anki_file_requests_allowed_total",
		Help: "Number of file requests allowed",
	})

	fileCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zi2anki_file_cache_hits_total",
		Help: "Number of file requests served as 304 Not Modified",
	})

	fileCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zi2anki_file_cache_misses_total",
		Help: "Number of file requests resulting in 200 OK (content served)",
	})

	buildTriggerTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zi2anki_build_trigger_total",
		Help: "Number of build trigger requests by outcome",
	}, []string{"outcome"})
)

func recordFileRequestAllowed() {
	fileRequestsAllowedTotal.Inc()
}

func recordFileRequestDenied(reason string) {
	fileRequestsDeniedTotal.WithLabelValues(reason).Inc()
}

func recordFileCacheHit() {
	fileCacheHitsTotal.Inc()
}

func recordFileCacheMiss() {
	fileCacheMissesTotal.Inc()
}

func recordBuildTrigger(outcome string) {
	buildTriggerTotal.WithLabelValues(outcome).Inc()
}
