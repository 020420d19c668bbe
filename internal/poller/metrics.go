package poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentdesk_video_polls_total",
			Help: "Video status checks by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	jobsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentdesk_video_jobs_finished_total",
			Help: "Video jobs that reached a terminal state.",
		},
		[]string{"provider", "status"},
	)

	activeJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "contentdesk_video_jobs_active",
		Help: "Video jobs currently being polled.",
	})
)

const outcomeError = "error"
