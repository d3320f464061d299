// Package csvfile reads and writes cohort tables as CSV files, one file per (course, archetype) pair.
package csvfile

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/cohortgen/core"
	"github.com/trezcool/cohortgen/core/cohort"
	"github.com/trezcool/cohortgen/core/tabular"
)

const ext = ".csv"

// ReadRows reads every row of `r`, header included.
func ReadRows(r io.Reader) (tabular.Rows, error) {
	rdr := csv.NewReader(r)
	rdr.FieldsPerRecord = -1
	records, err := rdr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading csv")
	}
	return records, nil
}

func WriteRows(w io.Writer, rows tabular.Rows) error {
	wtr := csv.NewWriter(w)
	if err := wtr.WriteAll(rows); err != nil {
		return errors.Wrap(err, "writing csv")
	}
	return nil
}

func ReadFile(path string) (tabular.Rows, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()
	return ReadRows(file)
}

func WriteFile(path string, rows tabular.Rows) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "closing %s", path)
		}
	}()
	return WriteRows(file, rows)
}

// TableFileName returns "<course words joined by _>_<archetype>.csv", see core.FileStem.
func TableFileName(course string, kind cohort.ArchetypeKind) string {
	return core.FileStem(course) + "_" + kind.String() + ext
}

// ParseTableFileName is the reverse of TableFileName.
func ParseTableFileName(name string) (course string, kind cohort.ArchetypeKind, err error) {
	stem := strings.TrimSuffix(filepath.Base(name), ext)
	idx := strings.LastIndex(stem, "_")
	if idx <= 0 {
		return "", 0, core.NewArgumentError("not a table file: " + name)
	}
	if kind, err = cohort.ParseKind(stem[idx+1:]); err != nil {
		return "", 0, err
	}
	return core.NameFromStem(stem[:idx]), kind, nil
}

// TableSink writes each table to its own file of a directory.
type TableSink struct {
	dir string
}

var _ cohort.TableSink = (*TableSink)(nil)

func NewTableSink(dir string) (*TableSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating output dir %s", dir)
	}
	return &TableSink{dir: dir}, nil
}

func (sink *TableSink) WriteTable(_ context.Context, tbl cohort.Table) error {
	return WriteFile(filepath.Join(sink.dir, TableFileName(tbl.Course.Name, tbl.Archetype)), tbl.Rows())
}

// ReadTables loads the tables of `dir`, by file name. Course activity counts are not stored in the files.
func ReadTables(dir string) ([]cohort.Table, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+ext))
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", dir)
	}
	sort.Strings(paths)

	tables := make([]cohort.Table, 0, len(paths))
	for _, path := range paths {
		course, kind, err := ParseTableFileName(path)
		if err != nil {
			continue // not ours
		}
		rows, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		tbl := cohort.Table{Course: cohort.Course{Name: course}, Archetype: kind}
		for i, row := range rows.Data() {
			rec, err := cohort.RecordFromRow(row)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: row %d", path, i+2)
			}
			tbl.Records = append(tbl.Records, rec)
		}
		tbl.Requested = len(tbl.Records)
		tables = append(tables, tbl)
	}
	return tables, nil
}

// CourseSource reads courses from a CSV file with a "name" column and optional
// "lessons", "webinars" and "tests" columns. Rows without counts get random ones,
// rows with a non-integer count get a CourseSpec.Err.
type CourseSource struct {
	path string
}

var _ cohort.CourseSource = (*CourseSource)(nil)

func NewCourseSource(path string) *CourseSource {
	return &CourseSource{path: path}
}

func (src *CourseSource) Courses(_ context.Context) ([]cohort.CourseSpec, error) {
	rows, err := ReadFile(src.path)
	if err != nil {
		return nil, err
	}
	nameCol := rows.Column("name")
	if nameCol < 0 {
		return nil, core.NewArgumentError(src.path + ": no name column")
	}
	countCols := [3]int{rows.Column("lessons"), rows.Column("webinars"), rows.Column("tests")}

	specs := make([]cohort.CourseSpec, 0, len(rows.Data()))
	for i, row := range rows.Data() {
		if nameCol >= len(row) || strings.TrimSpace(row[nameCol]) == "" {
			continue
		}
		spec := cohort.CourseSpec{Name: row[nameCol]}
		counts, ok, err := parseCounts(row, countCols)
		if err != nil {
			// the course fails on its own, the rest of the file is still generated
			spec.Err = errors.Wrapf(err, "%s: row %d", src.path, i+2)
		} else if ok {
			spec.Counts = &counts
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// parseCounts reports ok=false when every count cell is missing or blank.
func parseCounts(row []string, cols [3]int) (cohort.ActivityCounts, bool, error) {
	var (
		vals [3]int
		ok   bool
	)
	for i, col := range cols {
		if col < 0 || col >= len(row) || strings.TrimSpace(row[col]) == "" {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(row[col]))
		if err != nil {
			return cohort.ActivityCounts{}, false, core.NewArgumentError(strconv.Quote(row[col]) + " is not an integer")
		}
		vals[i], ok = v, true
	}
	return cohort.ActivityCounts{Lessons: vals[0], Webinars: vals[1], Tests: vals[2]}, ok, nil
}
