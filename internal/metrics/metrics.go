package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's prometheus collectors.
type Metrics struct {
	Transitions          *prometheus.CounterVec
	TransitionRejections *prometheus.CounterVec
	ImportRows           *prometheus.CounterVec
	ImportCommits        prometheus.Counter
}

// New registers the collectors on reg (pass prometheus.DefaultRegisterer in
// production, a fresh registry in tests).
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plan_transitions_total",
			Help: "Accepted plan status transitions by source and target status.",
		}, []string{"from", "to"}),
		TransitionRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plan_transition_rejections_total",
			Help: "Rejected plan status transitions by rejection reason.",
		}, []string{"reason"}),
		ImportRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "import_rows_total",
			Help: "Validated import rows by outcome (valid, invalid, warned).",
		}, []string{"result"}),
		ImportCommits: factory.NewCounter(prometheus.CounterOpts{
			Name: "import_commits_total",
			Help: "Committed import batches.",
		}),
	}
}
