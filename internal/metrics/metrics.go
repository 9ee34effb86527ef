package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Moves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minesweeper_moves_total",
			Help: "Moves applied to game sessions",
		},
		[]string{"move"},
	)
	GamesStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minesweeper_games_started_total",
			Help: "Fresh game sessions, by difficulty",
		},
		[]string{"difficulty"},
	)
	GamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minesweeper_games_finished_total",
			Help: "Finished games, by outcome",
		},
		[]string{"outcome"},
	)
	RestoreFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minesweeper_restore_failures_total",
			Help: "Saved states that could not be restored",
		},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minesweeper_http_requests_total",
			Help: "Handled HTTP requests",
		},
		[]string{"method", "code"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minesweeper_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(Moves)
	prometheus.MustRegister(GamesStarted)
	prometheus.MustRegister(GamesFinished)
	prometheus.MustRegister(RestoreFailures)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)
}
