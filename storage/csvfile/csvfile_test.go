package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cohortgen/core"
	"github.com/trezcool/cohortgen/core/cohort"
	testutil "github.com/trezcool/cohortgen/tests"
)

// assertFileContent fails with a unified diff when `path` does not hold `want`.
func assertFileContent(t *testing.T, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	if string(got) == want {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(string(got)),
		FromFile: "want",
		ToFile:   filepath.Base(path),
		Context:  2,
	})
	t.Errorf("unexpected content:\n%s", diff)
}

func TestTableSink_WriteTable(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewTableSink(filepath.Join(dir, "out"))
	require.NoError(t, err)

	tbl := cohort.Table{
		Course:    cohort.Course{Name: "Математика Гр1"},
		Archetype: cohort.Weak,
		Records: []cohort.StudentRecord{
			{StudentID: 3, LessonAttendance: 20, WebinarAttendance: 50, TestAttendance: 0},
			{StudentID: 12, LessonAttendance: 40, WebinarAttendance: 100, TestAttendance: 25, AverageTestScore: 44},
		},
	}
	require.NoError(t, sink.WriteTable(context.Background(), tbl))

	assertFileContent(t, filepath.Join(dir, "out", "Математика_Гр1_weak.csv"),
		"id,lesson_completion,webinar_completion,test_completion,average_points_for_tests\n"+
			"3,20,50,0,0\n"+
			"12,40,100,25,44\n")

	tables, err := ReadTables(filepath.Join(dir, "out"))
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "Математика Гр1", tables[0].Course.Name)
	assert.Equal(t, cohort.Weak, tables[0].Archetype)
	assert.Equal(t, tbl.Records, tables[0].Records)
}

func TestParseTableFileName(t *testing.T) {
	tests := []struct {
		name       string
		wantCourse string
		wantKind   cohort.ArchetypeKind
		wantErr    bool
	}{
		{name: "Русский_язык_Гр1_mixed.csv", wantCourse: "Русский язык Гр1", wantKind: cohort.Mixed},
		{name: "/tmp/out/Math_strong.csv", wantCourse: "Math", wantKind: cohort.Strong},
		{name: "Math_excellent.csv", wantCourse: "Math", wantKind: cohort.Strong},
		{name: "Intro%5FGo_Гр1_weak.csv", wantCourse: "Intro_Go Гр1", wantKind: cohort.Weak},
		{name: "Math.csv", wantErr: true},
		{name: "_weak.csv", wantErr: true},
		{name: "Math_lol.csv", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			course, kind, err := ParseTableFileName(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCourse, course)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestTableSink_generatedRun(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewTableSink(dir)
	require.NoError(t, err)

	conf := testutil.Config(30, 5)
	opts, err := cohort.OptionsFromConfig(conf.Generator)
	require.NoError(t, err)
	svc := cohort.NewService(cohort.ServiceDeps{
		Options: opts,
		Logger:  testutil.NewLogger(t),
		Source:  cohort.NewStaticSource(cohort.CourseSpecsFromConfig(conf.Generator.Courses)...),
		Sink:    sink,
	})
	res, err := svc.Generate(context.Background())
	require.NoError(t, err)

	tables, err := ReadTables(dir)
	require.NoError(t, err)
	require.Len(t, tables, len(res.Tables))
	// files are listed by name: Math_strong < Math_weak
	assert.Equal(t, res.Tables[1].Records, tables[0].Records)
	assert.Equal(t, res.Tables[0].Records, tables[1].Records)
}

func TestCourseSource_Courses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"name,lessons,webinars,tests\n"+
			"Математика Гр1,5,2,4\n"+
			"Математика Гр2,,,\n"+
			",1,1,1\n"+
			"Физика,6,0,1\n"), 0o644))

	specs, err := NewCourseSource(path).Courses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []cohort.CourseSpec{
		{Name: "Математика Гр1", Counts: &cohort.ActivityCounts{Lessons: 5, Webinars: 2, Tests: 4}},
		{Name: "Математика Гр2"},
		{Name: "Физика", Counts: &cohort.ActivityCounts{Lessons: 6, Webinars: 0, Tests: 1}},
	}, specs)
}

func TestCourseSource_namesOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.csv")
	require.NoError(t, os.WriteFile(path, []byte("name\nA\nB\n"), 0o644))

	specs, err := NewCourseSource(path).Courses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []cohort.CourseSpec{{Name: "A"}, {Name: "B"}}, specs)
}

func TestCourseSource_errors(t *testing.T) {
	dir := t.TempDir()
	noName := filepath.Join(dir, "no_name.csv")
	require.NoError(t, os.WriteFile(noName, []byte("title\nA\n"), 0o644))

	_, err := NewCourseSource(noName).Courses(context.Background())
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
	_, err = NewCourseSource(filepath.Join(dir, "missing.csv")).Courses(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCourseSource_badCountOnlyFailsItsCourse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"name,lessons,webinars,tests\n"+
			"Math,5,2,4\n"+
			"Bad,five,2,4\n"+
			"Physics,6,3,2\n"), 0o644))

	specs, err := NewCourseSource(path).Courses(context.Background())
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.NoError(t, specs[0].Err)
	assert.ErrorIs(t, specs[1].Err, core.ErrInvalidArgument)
	assert.Contains(t, specs[1].Err.Error(), "row 3")
	assert.Nil(t, specs[1].Counts)

	sink, err := NewTableSink(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	conf := testutil.Config(60, 3)
	opts, err := cohort.OptionsFromConfig(conf.Generator)
	require.NoError(t, err)
	res, err := cohort.NewService(cohort.ServiceDeps{
		Options: opts,
		Logger:  testutil.NewLogger(t),
		Source:  NewCourseSource(path),
		Sink:    sink,
	}).Generate(context.Background())
	require.NoError(t, err)

	var courses []string
	for _, tbl := range res.Tables {
		courses = append(courses, tbl.Course.Name)
	}
	assert.Equal(t, []string{"Math", "Math", "Physics", "Physics"}, courses)
	require.Len(t, res.Failures, 2)
	for _, fail := range res.Failures {
		assert.Equal(t, "Bad", fail.Course)
		assert.ErrorIs(t, fail, core.ErrInvalidArgument)
	}
}

func TestTableSink_underscoreInCourseName(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewTableSink(dir)
	require.NoError(t, err)

	for _, name := range []string{"Intro_Go", "Intro Go"} {
		tbl := cohort.Table{
			Course:    cohort.Course{Name: name},
			Archetype: cohort.Average,
			Records:   []cohort.StudentRecord{{StudentID: 1, LessonAttendance: 100, WebinarAttendance: 100, TestAttendance: 100, AverageTestScore: 70}},
		}
		require.NoError(t, sink.WriteTable(context.Background(), tbl))
	}

	tables, err := ReadTables(dir)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	// "%" sorts before "_"
	assert.Equal(t, "Intro_Go", tables[0].Course.Name)
	assert.Equal(t, "Intro Go", tables[1].Course.Name)
}
