// Package metrics exposes operational counters for the application
// lifecycle. Collection is always on; the HTTP endpoint is served only when
// a listen address is configured.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConversationsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "applyflow_conversations_started_total",
		Help: "Application conversations started.",
	})

	ConversationsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "applyflow_conversations_rejected_total",
		Help: "Conversation starts rejected by the cooldown gate.",
	})

	ApplicationsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "applyflow_applications_submitted_total",
		Help: "Applications that completed the question sequence.",
	})

	ApplicationsClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "applyflow_applications_claimed_total",
		Help: "Applications claimed by a reviewer.",
	})

	ApplicationsScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "applyflow_applications_scored_total",
		Help: "Score submissions accepted, including rescores.",
	})

	ApplicationsDecided = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "applyflow_applications_decided_total",
		Help: "Terminal decisions recorded.",
	}, []string{"decision"})

	MessagesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "applyflow_messages_swept_total",
		Help: "Outbound messages deleted by the cleanup sweeper.",
	})
)

// Serve blocks serving the /metrics endpoint on addr.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
