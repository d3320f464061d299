package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/cohortgen/core"
	"github.com/trezcool/cohortgen/core/cohort"
)

type (
	runRow struct {
		ID             string     `db:"id"`
		Seed           null.Int64 `db:"seed"` // null when the seed was generated
		EffectiveSeed  int64      `db:"effective_seed"`
		StudentsAmount int        `db:"students_amount"`
		CreatedAt      time.Time  `db:"created_at"`
	}

	groupRow struct {
		RunID     string `db:"run_id"`
		Course    string `db:"course"`
		Archetype string `db:"archetype"`
		Lessons   int    `db:"lessons"`
		Webinars  int    `db:"webinars"`
		Tests     int    `db:"tests"`
		Requested int    `db:"requested"`
		Seq       int    `db:"seq"`
	}

	recordRow struct {
		RunID     string `db:"run_id"`
		Course    string `db:"course"`
		Archetype string `db:"archetype"`
		cohort.StudentRecord
	}
)

func (row runRow) run() cohort.Run {
	return cohort.Run{
		ID:             row.ID,
		Seed:           row.EffectiveSeed,
		SeedProvided:   row.Seed.Valid,
		StudentsAmount: row.StudentsAmount,
		CreatedAt:      row.CreatedAt.UTC(),
	}
}

type tableStore struct {
	db *sqlx.DB
}

var (
	_ cohort.TableSink   = (*tableStore)(nil)
	_ cohort.TableLister = (*tableStore)(nil)
	_ cohort.RunRecorder = (*tableStore)(nil)
)

// Store is the SQL TableSink, TableLister and RunRecorder.
type Store interface {
	cohort.TableSink
	cohort.TableLister
	cohort.RunRecorder
}

func NewTableStore(db *sqlx.DB) Store {
	return &tableStore{db: db}
}

func (store *tableStore) BeginRun(ctx context.Context, run cohort.Run) error {
	row := runRow{
		ID:             run.ID,
		Seed:           null.NewInt64(run.Seed, run.SeedProvided),
		EffectiveSeed:  run.Seed,
		StudentsAmount: run.StudentsAmount,
		CreatedAt:      run.CreatedAt.UTC(),
	}
	_, err := store.db.NamedExecContext(ctx, `
		INSERT INTO cohort_run (id, seed, effective_seed, students_amount, created_at)
		VALUES (:id, :seed, :effective_seed, :students_amount, :created_at)`, row)
	return errors.Wrap(err, "inserting run")
}

// WriteTable stores the group and its records in one transaction.
func (store *tableStore) WriteTable(ctx context.Context, tbl cohort.Table) (err error) {
	tx, err := store.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = errors.Wrap(tx.Commit(), "committing table")
	}()
	return writeTable(ctx, tx, tbl)
}

func writeTable(ctx context.Context, ex core.DBExecutor, tbl cohort.Table) error {
	var seq int
	if err := ex.GetContext(ctx, &seq, ex.Rebind(`SELECT COUNT(*) FROM cohort_group WHERE run_id = ?`), tbl.RunID); err != nil {
		return errors.Wrap(err, "counting groups")
	}

	group := groupRow{
		RunID:     tbl.RunID,
		Course:    tbl.Course.Name,
		Archetype: tbl.Archetype.String(),
		Lessons:   tbl.Course.Lessons,
		Webinars:  tbl.Course.Webinars,
		Tests:     tbl.Course.Tests,
		Requested: tbl.Requested,
		Seq:       seq,
	}
	if _, err := ex.NamedExecContext(ctx, `
		INSERT INTO cohort_group (run_id, course, archetype, lessons, webinars, tests, requested, seq)
		VALUES (:run_id, :course, :archetype, :lessons, :webinars, :tests, :requested, :seq)`, group); err != nil {
		return errors.Wrap(err, "inserting group")
	}

	for _, rec := range tbl.Records {
		row := recordRow{RunID: group.RunID, Course: group.Course, Archetype: group.Archetype, StudentRecord: rec}
		if _, err := ex.NamedExecContext(ctx, `
			INSERT INTO cohort_record (run_id, course, archetype, student_id,
				lesson_attendance, webinar_attendance, test_attendance, average_test_score)
			VALUES (:run_id, :course, :archetype, :student_id,
				:lesson_attendance, :webinar_attendance, :test_attendance, :average_test_score)`, row); err != nil {
			return errors.Wrapf(err, "inserting student %d", rec.StudentID)
		}
	}
	return nil
}

func (store *tableStore) Runs(ctx context.Context) ([]cohort.Run, error) {
	var rows []runRow
	ord := core.DBOrdering{Field: "created_at", Ascending: true}
	if err := store.db.SelectContext(ctx, &rows, `SELECT * FROM cohort_run ORDER BY `+ord.String()+`, id`); err != nil {
		return nil, errors.Wrap(err, "selecting runs")
	}
	runs := make([]cohort.Run, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, row.run())
	}
	return runs, nil
}

func (store *tableStore) Tables(ctx context.Context, runID string) ([]cohort.Table, error) {
	var run runRow
	err := store.db.GetContext(ctx, &run, store.db.Rebind(`SELECT * FROM cohort_run WHERE id = ?`), runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cohort.ErrRunNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting run")
	}

	var groups []groupRow
	if err = store.db.SelectContext(ctx, &groups,
		store.db.Rebind(`SELECT * FROM cohort_group WHERE run_id = ? ORDER BY seq`), runID); err != nil {
		return nil, errors.Wrap(err, "selecting groups")
	}
	var records []recordRow
	if err = store.db.SelectContext(ctx, &records,
		store.db.Rebind(`SELECT * FROM cohort_record WHERE run_id = ? ORDER BY student_id`), runID); err != nil {
		return nil, errors.Wrap(err, "selecting records")
	}

	type key struct{ course, archetype string }
	byGroup := make(map[key][]cohort.StudentRecord, len(groups))
	for _, rec := range records {
		k := key{rec.Course, rec.Archetype}
		byGroup[k] = append(byGroup[k], rec.StudentRecord)
	}

	tables := make([]cohort.Table, 0, len(groups))
	for _, grp := range groups {
		kind, err := cohort.ParseKind(grp.Archetype)
		if err != nil {
			return nil, errors.Wrapf(err, "group %s/%s", grp.Course, grp.Archetype)
		}
		recs := byGroup[key{grp.Course, grp.Archetype}]
		if recs == nil {
			recs = []cohort.StudentRecord{}
		}
		tables = append(tables, cohort.Table{
			RunID: runID,
			Course: cohort.Course{
				Name:           grp.Course,
				ActivityCounts: cohort.ActivityCounts{Lessons: grp.Lessons, Webinars: grp.Webinars, Tests: grp.Tests},
			},
			Archetype: kind,
			Requested: grp.Requested,
			Records:   recs,
		})
	}
	return tables, nil
}
