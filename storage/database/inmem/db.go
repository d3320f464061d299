package inmemdb

import (
	"sync"

	"github.com/trezcool/cohortgen/core/cohort"
)

type (
	DB struct {
		cohort *cohortTable
	}

	cohortTable struct {
		mutex  sync.RWMutex
		runs   []cohort.Run
		tables map[string][]cohort.Table // by run id
	}
)

func Open() (*DB, error) {
	db := &DB{
		cohort: &cohortTable{tables: make(map[string][]cohort.Table)},
	}
	return db, nil
}
