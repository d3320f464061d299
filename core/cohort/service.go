package cohort

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/cohortgen/core"
)

// ErrRunNotFound is returned by TableListers for unknown run ids.
var ErrRunNotFound = errors.New("run not found")

type (
	// CourseSource supplies the courses of a run.
	CourseSource interface {
		Courses(ctx context.Context) ([]CourseSpec, error)
	}

	// TableSink persists generated tables.
	TableSink interface {
		WriteTable(ctx context.Context, tbl Table) error
	}

	// TableLister is the read side of the sinks that keep their tables around.
	TableLister interface {
		Runs(ctx context.Context) ([]Run, error)
		Tables(ctx context.Context, runID string) ([]Table, error)
	}

	// RunRecorder is implemented by sinks that persist run metadata.
	// BeginRun is called once, before the first table of the run.
	RunRecorder interface {
		BeginRun(ctx context.Context, run Run) error
	}

	Metrics interface {
		TableGenerated(course string, kind ArchetypeKind, requested, achieved int)
		UnitFailed(course string, kind ArchetypeKind)
		RunFinished(elapsed time.Duration)
	}

	// Options are the generator settings of a run.
	Options struct {
		StudentsAmount int
		Seed           *int64 // random when nil
		Archetypes     []ArchetypeSpec
		Lessons        core.Range
		Webinars       core.Range
		Tests          core.Range
		Mixed          MixedBands
	}

	ServiceDeps struct {
		Options  Options
		Logger   core.Logger
		Source   CourseSource
		Sink     TableSink
		Registry ClaimRegistry // in-memory when nil
		Metrics  Metrics       // optional
	}

	Service struct {
		opts     Options
		log      core.Logger
		source   CourseSource
		sink     TableSink
		registry ClaimRegistry
		metrics  Metrics
	}
)

var (
	// mockable funcs
	nowFunc     = time.Now
	newSeedFunc = newSeed
)

// OptionsFromConfig converts the generator section of the configuration.
func OptionsFromConfig(conf core.GeneratorConfig) (Options, error) {
	opts := Options{
		StudentsAmount: conf.StudentsAmount,
		Seed:           conf.RandomSeed,
		Lessons:        conf.Lessons,
		Webinars:       conf.Webinars,
		Tests:          conf.Tests,
		Mixed:          MixedBands{LowUpper: conf.MixedLowUpper, HighLower: conf.MixedHighLower},
	}
	for _, ac := range conf.Archetypes {
		kind, err := ParseKind(ac.Kind)
		if err != nil {
			return Options{}, err
		}
		opts.Archetypes = append(opts.Archetypes, ArchetypeSpec{
			Kind:         kind,
			GroupSizeMin: ac.GroupSizeMin,
			GroupSizeMax: ac.GroupSizeMax,
		})
	}
	return opts, opts.Validate()
}

func (opts Options) Validate() error {
	if opts.StudentsAmount < 1 {
		return core.NewArgumentError(fmt.Sprintf("students amount must be >= 1 (got %d)", opts.StudentsAmount))
	}
	if len(opts.Archetypes) == 0 {
		return core.NewArgumentError("no archetype")
	}
	for _, r := range []struct {
		name string
		core.Range
	}{{"lessons", opts.Lessons}, {"webinars", opts.Webinars}, {"tests", opts.Tests}} {
		if r.Min < 1 || r.Max < r.Min {
			return core.NewArgumentError(fmt.Sprintf("invalid %s range %d-%d", r.name, r.Min, r.Max))
		}
	}
	return opts.Mixed.Validate()
}

func NewService(deps ServiceDeps) *Service {
	svc := &Service{
		opts:     deps.Options,
		log:      deps.Logger,
		source:   deps.Source,
		sink:     deps.Sink,
		registry: deps.Registry,
		metrics:  deps.Metrics,
	}
	if svc.registry == nil {
		svc.registry = NewMemoryRegistry()
	}
	if svc.metrics == nil {
		svc.metrics = noopMetrics{}
	}
	return svc
}

// Generate runs the generator once and emits every table to the sink, in generation order.
// Invalid units and shortfalls are reported in the result. A sink failure stops the run and
// is returned as a *core.SinkError wrapping it.
func (svc *Service) Generate(ctx context.Context) (RunResult, error) {
	start := nowFunc()
	if err := svc.opts.Validate(); err != nil {
		return RunResult{}, err
	}

	run := Run{
		ID:             uuid.NewString(),
		StudentsAmount: svc.opts.StudentsAmount,
		CreatedAt:      start.UTC(),
	}
	if svc.opts.Seed != nil {
		run.Seed, run.SeedProvided = *svc.opts.Seed, true
	} else {
		seed, err := newSeedFunc()
		if err != nil {
			return RunResult{}, err
		}
		run.Seed = seed
	}
	svc.log.Info(fmt.Sprintf("run %s: seed %d, %d students", run.ID, run.Seed, run.StudentsAmount))
	rng := rand.New(rand.NewSource(run.Seed))

	specs, err := svc.source.Courses(ctx)
	if err != nil {
		return RunResult{}, errors.Wrap(err, "loading courses")
	}
	courses := ResolveCourses(specs, rng, svc.opts.Lessons, svc.opts.Webinars, svc.opts.Tests)

	if err := svc.registry.Reset(ctx); err != nil {
		return RunResult{}, errors.Wrap(err, "resetting claims")
	}
	if rec, ok := svc.sink.(RunRecorder); ok {
		if err := rec.BeginRun(ctx, run); err != nil {
			return RunResult{}, errors.Wrap(err, "recording run")
		}
	}

	alloc := NewAllocator(svc.opts.StudentsAmount, svc.registry, rng, Distribution{Mixed: svc.opts.Mixed})
	res, err := alloc.Run(ctx, courses, svc.opts.Archetypes)
	res.Run = run
	if err != nil {
		return res, err
	}

	for _, fail := range res.Failures {
		svc.log.Warn(fmt.Sprintf("skipped %s/%s: %v", fail.Course, fail.Archetype, fail.Err), fail)
		svc.metrics.UnitFailed(fail.Course, fail.Archetype)
	}
	for _, short := range res.Shortfalls {
		svc.log.Warn(short.Error())
	}

	for i := range res.Tables {
		tbl := &res.Tables[i]
		tbl.RunID = run.ID
		if err := svc.sink.WriteTable(ctx, *tbl); err != nil {
			return res, &core.SinkError{Course: tbl.Course.Name, Archetype: tbl.Archetype.String(), Err: err}
		}
		svc.metrics.TableGenerated(tbl.Course.Name, tbl.Archetype, tbl.Requested, len(tbl.Records))
		svc.log.Debug(fmt.Sprintf("%s/%s: %d students", tbl.Course.Name, tbl.Archetype, len(tbl.Records)))
	}

	svc.metrics.RunFinished(nowFunc().Sub(start))
	svc.log.Info(fmt.Sprintf("run %s: %d tables, %d failures, %d shortfalls",
		run.ID, len(res.Tables), len(res.Failures), len(res.Shortfalls)))
	return res, nil
}

// ResolveCourses normalizes course names and draws the missing activity counts, once per course.
// Malformed specs are kept: their units fail in Allocator.Run.
func ResolveCourses(specs []CourseSpec, rng *rand.Rand, lessons, webinars, tests core.Range) []Course {
	courses := make([]Course, 0, len(specs))
	for _, spec := range specs {
		course := Course{Name: core.CleanName(spec.Name)}
		if spec.Err != nil {
			course.err = spec.Err
		} else if spec.Counts != nil {
			course.ActivityCounts = *spec.Counts
		} else {
			course.ActivityCounts = ActivityCounts{
				Lessons:  randomRange(rng, lessons.Min, lessons.Max),
				Webinars: randomRange(rng, webinars.Min, webinars.Max),
				Tests:    randomRange(rng, tests.Min, tests.Max),
			}
		}
		courses = append(courses, course)
	}
	return courses
}

type staticSource []CourseSpec

var _ CourseSource = (staticSource)(nil)

// NewStaticSource returns a CourseSource serving `specs`.
func NewStaticSource(specs ...CourseSpec) CourseSource {
	return staticSource(specs)
}

func (src staticSource) Courses(_ context.Context) ([]CourseSpec, error) {
	return append([]CourseSpec(nil), src...), nil
}

// CourseSpecsFromConfig converts configured courses. A course with all counts at 0 gets random counts.
func CourseSpecsFromConfig(confs []core.CourseConfig) []CourseSpec {
	specs := make([]CourseSpec, 0, len(confs))
	for _, cc := range confs {
		spec := CourseSpec{Name: cc.Name}
		if cc.Lessons != 0 || cc.Webinars != 0 || cc.Tests != 0 {
			spec.Counts = &ActivityCounts{Lessons: cc.Lessons, Webinars: cc.Webinars, Tests: cc.Tests}
		}
		specs = append(specs, spec)
	}
	return specs
}

func newSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, errors.Wrap(err, "reading random seed")
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

type noopMetrics struct{}

func (noopMetrics) TableGenerated(string, ArchetypeKind, int, int) {}
func (noopMetrics) UnitFailed(string, ArchetypeKind)               {}
func (noopMetrics) RunFinished(time.Duration)                      {}
