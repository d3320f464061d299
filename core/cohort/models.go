package cohort

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/cohortgen/core"
	"github.com/trezcool/cohortgen/core/tabular"
)

// ArchetypeKind is the performance profile of a group.
type ArchetypeKind int

const (
	Weak ArchetypeKind = iota + 1
	Average
	Strong
	Mixed
)

var (
	AllKinds = []ArchetypeKind{Weak, Average, Strong, Mixed}

	kindNames = map[ArchetypeKind]string{
		Weak:    "weak",
		Average: "average",
		Strong:  "strong",
		Mixed:   "mixed",
	}

	// older fixtures used bad/good/excellent
	kindAliases = map[string]ArchetypeKind{
		"weak":      Weak,
		"bad":       Weak,
		"average":   Average,
		"good":      Average,
		"strong":    Strong,
		"excellent": Strong,
		"mixed":     Mixed,
	}
)

func (k ArchetypeKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "ArchetypeKind(" + strconv.Itoa(int(k)) + ")"
}

func (k ArchetypeKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

func (k ArchetypeKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, core.NewArgumentError(fmt.Sprintf("unknown archetype %d", int(k)))
	}
	return []byte(k.String()), nil
}

func (k *ArchetypeKind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseKind parses an archetype tag, case-insensitively.
func ParseKind(s string) (ArchetypeKind, error) {
	if kind, ok := kindAliases[core.CleanString(s, true /* lower */)]; ok {
		return kind, nil
	}
	return 0, core.NewArgumentError(fmt.Sprintf("unknown archetype %q", s))
}

// ArchetypeSpec is an archetype with the range its group sizes are drawn from,
// once per (course, archetype) pair.
type ArchetypeSpec struct {
	Kind         ArchetypeKind
	GroupSizeMin int
	GroupSizeMax int
}

func (as ArchetypeSpec) Validate() error {
	if !as.Kind.Valid() {
		return core.NewArgumentError(fmt.Sprintf("unknown archetype %d", int(as.Kind)))
	}
	if as.GroupSizeMin < 0 || as.GroupSizeMax < as.GroupSizeMin {
		return core.NewArgumentError(fmt.Sprintf("invalid group size range %d-%d for %s",
			as.GroupSizeMin, as.GroupSizeMax, as.Kind))
	}
	return nil
}

// Student is a member of the student-id universe.
// Course membership is tracked by a ClaimRegistry, never on the Student.
type Student struct {
	ID int
}

// ActivityCounts are the number of lessons, webinars and tests of a course.
type ActivityCounts struct {
	Lessons  int `json:"lessons"`
	Webinars int `json:"webinars"`
	Tests    int `json:"tests"`
}

type Course struct {
	Name string `json:"name"`
	ActivityCounts

	err error // set when the course spec could not be read
}

// Validate checks that the course can be generated: a name and at least one of each activity.
func (c Course) Validate() error {
	if c.err != nil {
		return c.err
	}
	if c.Name == "" {
		return core.NewArgumentError("course name is blank")
	}
	for _, cnt := range []struct {
		name string
		val  int
	}{{"lessons", c.Lessons}, {"webinars", c.Webinars}, {"tests", c.Tests}} {
		if cnt.val < 1 {
			return core.NewArgumentError(fmt.Sprintf("course %q: %s count must be >= 1 (got %d)", c.Name, cnt.name, cnt.val))
		}
	}
	return nil
}

// CourseSpec is a course as provided by a Source. A nil Counts is drawn randomly, once.
// A source sets Err when the spec is malformed: every unit of that course then fails
// while the other courses are generated.
type CourseSpec struct {
	Name   string
	Counts *ActivityCounts
	Err    error
}

// StudentRecord is one generated row. Attendances are quantized percentages.
type StudentRecord struct {
	StudentID         int `json:"id" db:"student_id"`
	LessonAttendance  int `json:"lesson_completion" db:"lesson_attendance"`
	WebinarAttendance int `json:"webinar_completion" db:"webinar_attendance"`
	TestAttendance    int `json:"test_completion" db:"test_attendance"`
	AverageTestScore  int `json:"average_points_for_tests" db:"average_test_score"`
}

// Header is the header row of every emitted table.
var Header = []string{"id", "lesson_completion", "webinar_completion", "test_completion", "average_points_for_tests"}

func (r StudentRecord) Row() []string {
	return []string{
		strconv.Itoa(r.StudentID),
		strconv.Itoa(r.LessonAttendance),
		strconv.Itoa(r.WebinarAttendance),
		strconv.Itoa(r.TestAttendance),
		strconv.Itoa(r.AverageTestScore),
	}
}

// RecordFromRow parses a data row laid out as Header.
func RecordFromRow(row []string) (StudentRecord, error) {
	if len(row) != len(Header) {
		return StudentRecord{}, core.NewArgumentError(fmt.Sprintf("expected %d cells, got %d", len(Header), len(row)))
	}
	vals := make([]int, len(row))
	for i, cell := range row {
		v, err := strconv.Atoi(strings.TrimSpace(cell))
		if err != nil {
			return StudentRecord{}, core.NewArgumentError(fmt.Sprintf("%s: %q is not an integer", Header[i], cell))
		}
		vals[i] = v
	}
	return StudentRecord{
		StudentID:         vals[0],
		LessonAttendance:  vals[1],
		WebinarAttendance: vals[2],
		TestAttendance:    vals[3],
		AverageTestScore:  vals[4],
	}, nil
}

// Table is the generated group of one (course, archetype) pair.
type Table struct {
	RunID     string          `json:"run_id"`
	Course    Course          `json:"course"`
	Archetype ArchetypeKind   `json:"archetype"`
	Requested int             `json:"requested"`
	Records   []StudentRecord `json:"records"`
}

// UnderCapacity reports whether fewer students than requested could be allocated.
func (t Table) UnderCapacity() bool {
	return len(t.Records) < t.Requested
}

// SortRecords sorts the records ascending by student id.
func (t *Table) SortRecords() {
	sort.SliceStable(t.Records, func(i, j int) bool { return t.Records[i].StudentID < t.Records[j].StudentID })
}

// Rows returns the header followed by one row per record.
func (t Table) Rows() tabular.Rows {
	rows := make(tabular.Rows, 0, len(t.Records)+1)
	rows = append(rows, append([]string(nil), Header...))
	for _, rec := range t.Records {
		rows = append(rows, rec.Row())
	}
	return rows
}

// StudentIDs returns the ids of the table, in record order.
func (t Table) StudentIDs() []int {
	ids := make([]int, 0, len(t.Records))
	for _, rec := range t.Records {
		ids = append(ids, rec.StudentID)
	}
	return ids
}

// Allocation is the result of allocating students to one group.
type Allocation struct {
	Students  []Student
	Requested int
}

func (a Allocation) Achieved() int { return len(a.Students) }

func (a Allocation) UnderCapacity() bool { return a.Achieved() < a.Requested }

// Run describes one generation run.
type Run struct {
	ID             string    `json:"id"`
	Seed           int64     `json:"seed"`
	SeedProvided   bool      `json:"seed_provided"`
	StudentsAmount int       `json:"students_amount"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}
