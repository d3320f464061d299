package cohort

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/trezcool/cohortgen/core"
)

type (
	// UnitError is the failure of a single (course, archetype) unit. It never aborts the run.
	UnitError struct {
		Course    string
		Archetype ArchetypeKind
		Err       error
	}

	// Shortfall reports a group emitted smaller than requested.
	Shortfall struct {
		Course    string
		Archetype ArchetypeKind
		Requested int
		Achieved  int
	}

	RunResult struct {
		Run        Run
		Tables     []Table
		Failures   []UnitError
		Shortfalls []Shortfall
	}
)

func (err UnitError) Error() string {
	return fmt.Sprintf("%s/%s: %v", err.Course, err.Archetype, err.Err)
}

func (err UnitError) Unwrap() error { return err.Err }

func (s Shortfall) Error() string {
	return fmt.Sprintf("%s/%s: %v: %d of %d students allocated", s.Course, s.Archetype, core.ErrResourceExhausted, s.Achieved, s.Requested)
}

func (s Shortfall) Is(target error) bool { return target == core.ErrResourceExhausted }

// Allocator builds the group tables of a run out of a universe of students 0..N-1.
type Allocator struct {
	students int
	registry ClaimRegistry
	rng      *rand.Rand
	dist     Distribution
}

func NewAllocator(studentsAmount int, registry ClaimRegistry, rng *rand.Rand, dist Distribution) *Allocator {
	return &Allocator{
		students: studentsAmount,
		registry: registry,
		rng:      rng,
		dist:     dist,
	}
}

// Allocate picks up to `groupSize` students not yet claimed for `course` and claims them.
// When the universe runs out, the allocation holds fewer students than requested: see Allocation.UnderCapacity.
func (a *Allocator) Allocate(ctx context.Context, course Course, groupSize int) (Allocation, error) {
	if groupSize < 0 {
		return Allocation{}, core.NewArgumentError(fmt.Sprintf("group size must be >= 0 (got %d)", groupSize))
	}

	alloc := Allocation{Requested: groupSize, Students: make([]Student, 0, groupSize)}
	for _, id := range a.rng.Perm(a.students) {
		if len(alloc.Students) == groupSize {
			break
		}
		claimed, err := a.registry.Claim(ctx, course.Name, id)
		if err != nil {
			return Allocation{}, errors.Wrapf(err, "claiming student %d for %q", id, course.Name)
		}
		if claimed {
			alloc.Students = append(alloc.Students, Student{ID: id})
		}
	}
	return alloc, nil
}

// BuildTable computes a record per allocated student.
// One ability score is drawn per student: it is the raw lesson score and the seed of every other draw.
func (a *Allocator) BuildTable(course Course, kind ArchetypeKind, alloc Allocation) (Table, error) {
	if err := course.Validate(); err != nil {
		return Table{}, err
	}

	tbl := Table{
		Course:    course,
		Archetype: kind,
		Requested: alloc.Requested,
		Records:   make([]StudentRecord, 0, len(alloc.Students)),
	}
	for _, std := range alloc.Students {
		ability := a.dist.RawScore(a.rng, kind, nil)
		webinar := a.dist.RawScore(a.rng, kind, &ability)
		test := a.dist.RawScore(a.rng, kind, &ability)
		avg := a.dist.RawScore(a.rng, kind, &ability)

		rec := StudentRecord{StudentID: std.ID, AverageTestScore: avg}
		// counts are validated above: Quantize cannot fail
		rec.LessonAttendance, _ = Quantize(float64(ability), course.Lessons)
		rec.WebinarAttendance, _ = Quantize(float64(webinar), course.Webinars)
		rec.TestAttendance, _ = Quantize(float64(test), course.Tests)
		if rec.TestAttendance == 0 {
			rec.AverageTestScore = 0
		}
		tbl.Records = append(tbl.Records, rec)
	}
	tbl.SortRecords()
	return tbl, nil
}

// Run generates one table per (course, archetype) pair, course-major.
// Invalid units are skipped and reported in RunResult.Failures; only registry errors abort the run.
// A pair met again after a valid occurrence is invalid: both tables would share one output key.
func (a *Allocator) Run(ctx context.Context, courses []Course, archetypes []ArchetypeSpec) (RunResult, error) {
	type unit struct {
		course string
		kind   ArchetypeKind
	}
	var res RunResult
	seen := make(map[unit]bool)
	for _, course := range courses {
		courseErr := course.Validate()
		for _, spec := range archetypes {
			if err := firstErr(courseErr, spec.Validate()); err != nil {
				res.Failures = append(res.Failures, UnitError{Course: course.Name, Archetype: spec.Kind, Err: err})
				continue
			}
			key := unit{course.Name, spec.Kind}
			if seen[key] {
				err := core.NewArgumentError(fmt.Sprintf("duplicate unit %s/%s", course.Name, spec.Kind))
				res.Failures = append(res.Failures, UnitError{Course: course.Name, Archetype: spec.Kind, Err: err})
				continue
			}
			seen[key] = true

			alloc, err := a.Allocate(ctx, course, randomRange(a.rng, spec.GroupSizeMin, spec.GroupSizeMax))
			if err != nil {
				return res, err
			}
			tbl, err := a.BuildTable(course, spec.Kind, alloc)
			if err != nil {
				res.Failures = append(res.Failures, UnitError{Course: course.Name, Archetype: spec.Kind, Err: err})
				continue
			}
			if alloc.UnderCapacity() {
				res.Shortfalls = append(res.Shortfalls, Shortfall{
					Course:    course.Name,
					Archetype: spec.Kind,
					Requested: alloc.Requested,
					Achieved:  alloc.Achieved(),
				})
			}
			res.Tables = append(res.Tables, tbl)
		}
	}
	return res, nil
}

// randomRange returns a random int in [min, max].
func randomRange(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + rng.Intn(max-min+1)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
