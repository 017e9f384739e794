package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	queueSize    *prometheus.GaugeVec
	enqueueTotal *prometheus.CounterVec
	dequeueTotal *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec

	registrationsTotal *prometheus.CounterVec
	movesTotal         *prometheus.CounterVec
	turnsTotal         prometheus.Counter
	waitRoundsTotal    *prometheus.CounterVec

	simulationRunsTotal    *prometheus.CounterVec
	simulationRunDuration  prometheus.Histogram
	simulationMowersPerRun prometheus.Histogram
	activeSimulations      prometheus.Gauge
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			queueSize: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "queue_size",
					Help: "Current queue size by lane.",
				},
				[]string{"lane"},
			),
			enqueueTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "enqueue_total",
					Help: "Total enqueue operations by lane.",
				},
				[]string{"lane"},
			),
			dequeueTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "dequeue_total",
					Help: "Total dequeue/completion operations by lane and status.",
				},
				[]string{"lane", "status"},
			),
			taskDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "task_duration_seconds",
					Help:    "Task execution duration in seconds by lane.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"lane"},
			),
			registrationsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mower_registrations_total",
					Help: "Mower registrations by outcome (registered, abandoned, invalid).",
				},
				[]string{"outcome"},
			),
			movesTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mower_moves_total",
					Help: "Advance requests by outcome (moved, blocked, out_of_bounds).",
				},
				[]string{"outcome"},
			),
			turnsTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "mower_turns_total",
					Help: "Total committed turns.",
				},
			),
			waitRoundsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mower_wait_rounds_total",
					Help: "Bounded waits on a contested cell by operation (register, advance).",
				},
				[]string{"op"},
			),
			simulationRunsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "simulation_runs_total",
					Help: "Total simulation runs by status.",
				},
				[]string{"status"},
			),
			simulationRunDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "simulation_duration_seconds",
					Help:    "Simulation run duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			simulationMowersPerRun: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "simulation_mowers",
					Help:    "Number of mowers per simulation run.",
					Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
				},
			),
			activeSimulations: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "simulations_active",
					Help: "Current number of running simulations.",
				},
			),
		}

		prometheus.MustRegister(
			m.queueSize,
			m.enqueueTotal,
			m.dequeueTotal,
			m.taskDuration,
			m.registrationsTotal,
			m.movesTotal,
			m.turnsTotal,
			m.waitRoundsTotal,
			m.simulationRunsTotal,
			m.simulationRunDuration,
			m.simulationMowersPerRun,
			m.activeSimulations,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func RecordQueueEnqueue(lane string, queueSize int) {
	m := getMetrics()
	m.enqueueTotal.WithLabelValues(lane).Inc()
	m.queueSize.WithLabelValues(lane).Set(float64(queueSize))
}

func SetQueueSize(lane string, queueSize int) {
	m := getMetrics()
	m.queueSize.WithLabelValues(lane).Set(float64(queueSize))
}

func RecordQueueCompletion(lane string, duration time.Duration, success bool, queueSize int) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.dequeueTotal.WithLabelValues(lane, status).Inc()
	m.taskDuration.WithLabelValues(lane).Observe(duration.Seconds())
	m.queueSize.WithLabelValues(lane).Set(float64(queueSize))
}

func RecordRegistration(outcome string) {
	getMetrics().registrationsTotal.WithLabelValues(outcome).Inc()
}

func RecordMove(outcome string) {
	getMetrics().movesTotal.WithLabelValues(outcome).Inc()
}

func RecordTurn() {
	getMetrics().turnsTotal.Inc()
}

func RecordWaitRound(op string) {
	getMetrics().waitRoundsTotal.WithLabelValues(op).Inc()
}

func SimulationStarted(mowers int) {
	m := getMetrics()
	m.activeSimulations.Inc()
	m.simulationMowersPerRun.Observe(float64(mowers))
}

func RecordSimulationRun(duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.activeSimulations.Dec()
	m.simulationRunsTotal.WithLabelValues(status).Inc()
	m.simulationRunDuration.Observe(duration.Seconds())
}
