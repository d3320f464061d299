package metricsvc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/cohortgen/core/cohort"
)

var (
	// StudentsAllocated counts the students placed in a group
	StudentsAllocated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohortgen_students_allocated_total",
			Help: "Students allocated to a group",
		},
		[]string{"course", "archetype"},
	)

	// StudentsMissing counts the students a group could not get because the universe ran out
	StudentsMissing = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohortgen_students_missing_total",
			Help: "Requested students that could not be allocated",
		},
		[]string{"course", "archetype"},
	)

	// UnitFailures counts the (course, archetype) units skipped as invalid
	UnitFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohortgen_unit_failures_total",
			Help: "Units skipped because of an invalid argument",
		},
		[]string{"course", "archetype"},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cohortgen_run_duration_seconds",
			Help:    "Duration of generation runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(StudentsAllocated)
	prometheus.MustRegister(StudentsMissing)
	prometheus.MustRegister(UnitFailures)
	prometheus.MustRegister(RunDuration)
}

// Recorder feeds the generator events to the collectors above.
type Recorder struct{}

var _ cohort.Metrics = Recorder{}

func (Recorder) TableGenerated(course string, kind cohort.ArchetypeKind, requested, achieved int) {
	StudentsAllocated.WithLabelValues(course, kind.String()).Add(float64(achieved))
	if achieved < requested {
		StudentsMissing.WithLabelValues(course, kind.String()).Add(float64(requested - achieved))
	}
}

func (Recorder) UnitFailed(course string, kind cohort.ArchetypeKind) {
	UnitFailures.WithLabelValues(course, kind.String()).Inc()
}

func (Recorder) RunFinished(elapsed time.Duration) {
	RunDuration.Observe(elapsed.Seconds())
}
