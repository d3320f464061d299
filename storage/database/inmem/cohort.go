package inmemdb

import (
	"context"

	"github.com/trezcool/cohortgen/core"
	"github.com/trezcool/cohortgen/core/cohort"
)

type tableStore struct {
	db *cohortTable
}

var (
	_ cohort.TableSink   = (*tableStore)(nil)
	_ cohort.TableLister = (*tableStore)(nil)
	_ cohort.RunRecorder = (*tableStore)(nil)
)

// Store is the in-memory TableSink, TableLister and RunRecorder.
type Store interface {
	cohort.TableSink
	cohort.TableLister
	cohort.RunRecorder
}

func NewTableStore(db *DB) Store {
	return &tableStore{db: db.cohort}
}

func (store *tableStore) BeginRun(_ context.Context, run cohort.Run) error {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()

	for _, r := range store.db.runs {
		if r.ID == run.ID {
			return core.NewArgumentError("run " + run.ID + " already recorded")
		}
	}
	store.db.runs = append(store.db.runs, run)
	if _, ok := store.db.tables[run.ID]; !ok {
		store.db.tables[run.ID] = nil
	}
	return nil
}

func (store *tableStore) WriteTable(_ context.Context, tbl cohort.Table) error {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()

	tbl.Records = append([]cohort.StudentRecord(nil), tbl.Records...)
	store.db.tables[tbl.RunID] = append(store.db.tables[tbl.RunID], tbl)
	return nil
}

func (store *tableStore) Runs(_ context.Context) ([]cohort.Run, error) {
	store.db.mutex.RLock()
	defer store.db.mutex.RUnlock()
	return append([]cohort.Run(nil), store.db.runs...), nil
}

func (store *tableStore) Tables(_ context.Context, runID string) ([]cohort.Table, error) {
	store.db.mutex.RLock()
	defer store.db.mutex.RUnlock()

	tables, ok := store.db.tables[runID]
	if !ok {
		return nil, cohort.ErrRunNotFound
	}
	return append([]cohort.Table(nil), tables...), nil
}
