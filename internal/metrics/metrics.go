// Package metrics exposes prometheus collectors for the dispatch service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsStarted counts dispatch runs accepted by the API.
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "horizon_dispatch_runs_started_total",
		Help: "Number of dispatch optimization runs started.",
	})

	// RunsFinished counts completed runs by terminal status
	// (completed, failed, cancelled).
	RunsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "horizon_dispatch_runs_finished_total",
		Help: "Number of dispatch optimization runs finished, by status.",
	}, []string{"status"})

	// SolveDuration observes wall-clock solve time per run.
	SolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "horizon_dispatch_solve_duration_seconds",
		Help:    "Wall-clock duration of dispatch solves.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	// SolverIterations observes the solver's reported iteration counts.
	SolverIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "horizon_dispatch_solver_iterations",
		Help:    "Solver iteration counts per dispatch run.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)
