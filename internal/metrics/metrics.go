// Package metrics declares the coordinator's prometheus instruments,
// one HistogramVec/CounterVec pair per pipeline phase, grouped the way
// the teacher's staging/stage/metrics.go groups its own.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LatencyBuckets are shared across every phase histogram so that
// dashboards can compare phases on one scale.
var LatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// StatementLabels is the label set attached to every per-statement
// instrument: the statement kind (SELECT/INSERT/UPDATE/DELETE).
var StatementLabels = []string{"kind"}

var (
	parseDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coordinator_parse_duration_seconds",
		Help:    "the length of time it took to lex and parse a statement",
		Buckets: LatencyBuckets,
	}, StatementLabels)
	parseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coordinator_parse_errors_total",
		Help: "the number of statements that failed to lex or parse",
	}, StatementLabels)

	validateDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coordinator_validate_duration_seconds",
		Help:    "the length of time it took to validate a statement against the catalog",
		Buckets: LatencyBuckets,
	}, StatementLabels)
	validateErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coordinator_validate_errors_total",
		Help: "the number of statements that failed catalog validation",
	}, StatementLabels)

	translateDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coordinator_translate_duration_seconds",
		Help:    "the length of time it took to translate a statement for one fragment",
		Buckets: LatencyBuckets,
	}, StatementLabels)
	translateErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coordinator_translate_errors_total",
		Help: "the number of fragment translations that failed",
	}, StatementLabels)

	executeDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coordinator_execute_duration_seconds",
		Help:    "the length of time it took a backend worker to execute a translated statement",
		Buckets: LatencyBuckets,
	}, StatementLabels)
	executeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coordinator_execute_errors_total",
		Help: "the number of backend executions that failed",
	}, StatementLabels)

	routerDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coordinator_router_duration_seconds",
		Help:    "the length of time it took the router to run one statement's full 2PC handshake",
		Buckets: LatencyBuckets,
	}, StatementLabels)

	// RouterAborts counts statements whose handshake ended in a
	// rollback across every participant, whether from an explicit
	// error, a timeout, or (for SELECT) the always-abort read path.
	RouterAborts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coordinator_router_aborts_total",
		Help: "the number of statements whose 2PC handshake ended in a rollback",
	}, StatementLabels)
)

// ParseErrors increments the parse-error counter for kind.
func ParseErrors(kind string) { parseErrors.WithLabelValues(kind).Inc() }

// ValidateErrors increments the validate-error counter for kind.
func ValidateErrors(kind string) { validateErrors.WithLabelValues(kind).Inc() }

// TranslateErrors increments the translate-error counter for kind.
func TranslateErrors(kind string) { translateErrors.WithLabelValues(kind).Inc() }

// ExecuteErrors increments the execute-error counter for kind.
func ExecuteErrors(kind string) { executeErrors.WithLabelValues(kind).Inc() }

// StartParseTimer returns a timer that records into the parse phase's
// histogram for kind when observed.
func StartParseTimer(kind string) *prometheus.Timer {
	return prometheus.NewTimer(parseDurations.WithLabelValues(kind))
}

// StartValidateTimer returns a timer for the validate phase.
func StartValidateTimer(kind string) *prometheus.Timer {
	return prometheus.NewTimer(validateDurations.WithLabelValues(kind))
}

// StartTranslateTimer returns a timer for the translate phase.
func StartTranslateTimer(kind string) *prometheus.Timer {
	return prometheus.NewTimer(translateDurations.WithLabelValues(kind))
}

// StartExecuteTimer returns a timer for a backend worker's execute
// phase.
func StartExecuteTimer(kind string) *prometheus.Timer {
	return prometheus.NewTimer(executeDurations.WithLabelValues(kind))
}

// StartRouterTimer returns a timer for the router's full handshake.
func StartRouterTimer(kind string) *prometheus.Timer {
	return prometheus.NewTimer(routerDurations.WithLabelValues(kind))
}
