package cohort

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cohortgen/core"
	testutil "github.com/trezcool/cohortgen/tests"
)

func newTestService(t *testing.T, opts Options, sink TableSink, specs ...CourseSpec) *Service {
	return NewService(ServiceDeps{
		Options: opts,
		Logger:  testutil.NewLogger(t),
		Source:  NewStaticSource(specs...),
		Sink:    sink,
	})
}

func testOptions(t *testing.T) Options {
	opts, err := OptionsFromConfig(testutil.Config(30, 42).Generator)
	require.NoError(t, err)
	return opts
}

func TestOptionsFromConfig(t *testing.T) {
	conf := testutil.Config(30, 42).Generator
	conf.Archetypes = append(conf.Archetypes, core.ArchetypeConfig{Kind: "Excellent", GroupSizeMin: 1, GroupSizeMax: 2})

	opts, err := OptionsFromConfig(conf)
	require.NoError(t, err)
	assert.Equal(t, 30, opts.StudentsAmount)
	assert.Equal(t, int64(42), *opts.Seed)
	assert.Equal(t, DefaultMixedBands(), opts.Mixed)
	assert.Equal(t, []ArchetypeSpec{
		{Kind: Weak, GroupSizeMin: 10, GroupSizeMax: 10},
		{Kind: Strong, GroupSizeMin: 10, GroupSizeMax: 10},
		{Kind: Strong, GroupSizeMin: 1, GroupSizeMax: 2},
	}, opts.Archetypes)

	tests := []struct {
		name   string
		mutate func(gc *core.GeneratorConfig)
	}{
		{name: "unknown archetype", mutate: func(gc *core.GeneratorConfig) { gc.Archetypes[0].Kind = "lol" }},
		{name: "no students", mutate: func(gc *core.GeneratorConfig) { gc.StudentsAmount = 0 }},
		{name: "no archetype", mutate: func(gc *core.GeneratorConfig) { gc.Archetypes = nil }},
		{name: "bad tests range", mutate: func(gc *core.GeneratorConfig) { gc.Tests = core.Range{Min: 3, Max: 1} }},
		{name: "bad mixed bands", mutate: func(gc *core.GeneratorConfig) { gc.MixedLowUpper = 95 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := testutil.Config(30, 42).Generator
			tt.mutate(&gc)
			_, err := OptionsFromConfig(gc)
			assert.ErrorIs(t, err, core.ErrInvalidArgument)
		})
	}
}

func TestService_Generate(t *testing.T) {
	sink := new(SinkMock)
	svc := newTestService(t, testOptions(t), sink, CourseSpecsFromConfig(testutil.Config(30, 42).Generator.Courses)...)

	res, err := svc.Generate(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.Run.ID)
	assert.Equal(t, int64(42), res.Run.Seed)
	assert.True(t, res.Run.SeedProvided)
	require.Len(t, sink.Runs, 1)
	assert.Equal(t, res.Run, sink.Runs[0])

	require.Len(t, sink.Tables, 2)
	assert.Equal(t, res.Tables, sink.Tables)
	for _, tbl := range sink.Tables {
		assert.Equal(t, res.Run.ID, tbl.RunID)
		assert.Equal(t, ActivityCounts{Lessons: 5, Webinars: 2, Tests: 4}, tbl.Course.ActivityCounts)
		assert.Len(t, tbl.Records, 10)
	}
}

func TestService_Generate_sameSeedSameTables(t *testing.T) {
	generate := func() []Table {
		sink := new(SinkMock)
		svc := newTestService(t, testOptions(t), sink, CourseSpec{Name: "Math"}, CourseSpec{Name: "Physics"})
		_, err := svc.Generate(context.Background())
		require.NoError(t, err)
		for i := range sink.Tables {
			sink.Tables[i].RunID = ""
		}
		return sink.Tables
	}
	first := generate()
	require.Len(t, first, 4)
	assert.Equal(t, first, generate())
}

func TestService_Generate_randomSeed(t *testing.T) {
	newSeedFunc = func() (int64, error) { return 1234, nil }
	defer func() { newSeedFunc = newSeed }()

	opts := testOptions(t)
	opts.Seed = nil
	svc := newTestService(t, opts, new(SinkMock), CourseSpec{Name: "Math"})
	res, err := svc.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1234), res.Run.Seed)
	assert.False(t, res.Run.SeedProvided)
}

func TestService_Generate_randomCounts(t *testing.T) {
	sink := new(SinkMock)
	svc := newTestService(t, testOptions(t), sink, CourseSpec{Name: "  Math\t"})
	_, err := svc.Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.Tables, 2)
	course := sink.Tables[0].Course
	assert.Equal(t, "Math", course.Name)
	assert.True(t, course.Lessons >= 4 && course.Lessons <= 10, "lessons %d", course.Lessons)
	assert.True(t, course.Webinars >= 2 && course.Webinars <= 4, "webinars %d", course.Webinars)
	assert.True(t, course.Tests >= 1 && course.Tests <= 4, "tests %d", course.Tests)
	// drawn once per course
	assert.Equal(t, course, sink.Tables[1].Course)
}

func TestService_Generate_invalidCourseIsSkipped(t *testing.T) {
	sink := new(SinkMock)
	svc := newTestService(t, testOptions(t), sink,
		CourseSpec{Name: "Broken", Counts: &ActivityCounts{Lessons: 0, Webinars: 2, Tests: 2}},
		CourseSpec{Name: "Math"},
	)
	res, err := svc.Generate(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Failures, 2)
	require.Len(t, sink.Tables, 2)
	assert.Equal(t, "Math", sink.Tables[0].Course.Name)
}

func TestService_Generate_malformedSpecIsSkipped(t *testing.T) {
	errParse := core.NewArgumentError(`"five" is not an integer`)
	confSpecs := CourseSpecsFromConfig([]core.CourseConfig{{Name: "Negative", Lessons: -1, Webinars: 2, Tests: 2}})

	sink := new(SinkMock)
	svc := newTestService(t, testOptions(t), sink,
		CourseSpec{Name: "Math"},
		CourseSpec{Name: "Bad", Err: errParse},
		confSpecs[0],
		CourseSpec{Name: "Physics", Counts: &ActivityCounts{Lessons: 6, Webinars: 3, Tests: 2}},
	)
	res, err := svc.Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.Tables, 4)
	assert.Equal(t, "Math", sink.Tables[0].Course.Name)
	assert.Equal(t, "Physics", sink.Tables[3].Course.Name)

	require.Len(t, res.Failures, 4)
	assert.Equal(t, "Bad", res.Failures[0].Course)
	assert.ErrorIs(t, res.Failures[0], errParse)
	assert.Equal(t, "Negative", res.Failures[2].Course)
	assert.ErrorIs(t, res.Failures[2], core.ErrInvalidArgument)
}

func TestService_Generate_sameNameAfterCleaning(t *testing.T) {
	sink := new(SinkMock)
	svc := newTestService(t, testOptions(t), sink, CourseSpec{Name: "Math"}, CourseSpec{Name: " Math  "})
	res, err := svc.Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.Tables, 2)
	require.Len(t, res.Failures, 2)
	for _, fail := range res.Failures {
		assert.Equal(t, "Math", fail.Course)
		assert.ErrorIs(t, fail, core.ErrInvalidArgument)
	}
	ids := make(map[int]bool)
	for _, tbl := range sink.Tables {
		for _, id := range tbl.StudentIDs() {
			ids[id] = true
		}
	}
	assert.Len(t, ids, 20)
}

func TestService_Generate_sinkErrorAborts(t *testing.T) {
	errFull := errors.New("disk full")
	sink := &SinkMock{FailOn: 2, Err: errFull}
	svc := newTestService(t, testOptions(t), sink, CourseSpec{Name: "Math"})

	_, err := svc.Generate(context.Background())
	assert.ErrorIs(t, err, errFull)

	var sinkErr *core.SinkError
	require.ErrorAs(t, err, &sinkErr)
	assert.Equal(t, "Math", sinkErr.Course)
	assert.Equal(t, "strong", sinkErr.Archetype)
	assert.Len(t, sink.Tables, 1)
}

type failingSource struct{ err error }

func (src failingSource) Courses(context.Context) ([]CourseSpec, error) { return nil, src.err }

func TestService_Generate_sourceError(t *testing.T) {
	errSrc := errors.New("sheet unavailable")
	svc := NewService(ServiceDeps{
		Options: testOptions(t),
		Logger:  testutil.NewLogger(t),
		Source:  failingSource{errSrc},
		Sink:    new(SinkMock),
	})
	_, err := svc.Generate(context.Background())
	assert.ErrorIs(t, err, errSrc)
}

type metricsMock struct {
	tables   int
	failures int
	runs     int
}

func (m *metricsMock) TableGenerated(string, ArchetypeKind, int, int) { m.tables++ }
func (m *metricsMock) UnitFailed(string, ArchetypeKind)               { m.failures++ }
func (m *metricsMock) RunFinished(time.Duration)                      { m.runs++ }

func TestService_Generate_metrics(t *testing.T) {
	metrics := new(metricsMock)
	svc := NewService(ServiceDeps{
		Options: testOptions(t),
		Logger:  testutil.NewLogger(t),
		Source:  NewStaticSource(CourseSpec{Name: "Math"}, CourseSpec{Name: "Empty", Counts: &ActivityCounts{}}),
		Sink:    new(SinkMock),
		Metrics: metrics,
	})
	_, err := svc.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &metricsMock{tables: 2, failures: 2, runs: 1}, metrics)
}

func TestCourseSpecsFromConfig(t *testing.T) {
	specs := CourseSpecsFromConfig([]core.CourseConfig{
		{Name: "Random"},
		{Name: "Fixed", Lessons: 4, Webinars: 3, Tests: 2},
		{Name: "Partial", Lessons: 4},
	})
	require.Len(t, specs, 3)
	assert.Nil(t, specs[0].Counts)
	assert.Equal(t, &ActivityCounts{Lessons: 4, Webinars: 3, Tests: 2}, specs[1].Counts)
	assert.Equal(t, &ActivityCounts{Lessons: 4}, specs[2].Counts)
}
