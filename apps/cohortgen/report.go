package main

import (
	"github.com/trezcool/cohortgen/core/cohort"
	"github.com/trezcool/cohortgen/core/tabular"
	"github.com/trezcool/cohortgen/storage/csvfile"
)

// enrollments writes the enrollment matrix of the tables of `dir` to `out`, or to the CLI output.
func (cli *commandLine) enrollments(dir, out string) error {
	tables, err := csvfile.ReadTables(dir)
	if err != nil {
		return err
	}
	rows, err := cohort.EnrollmentMatrix(tables)
	if err != nil {
		return err
	}
	if out == "" {
		return csvfile.WriteRows(cli.out, rows)
	}
	return csvfile.WriteFile(out, rows)
}

func (cli *commandLine) sortFile(key, in, out string) error {
	rows, err := csvfile.ReadFile(in)
	if err != nil {
		return err
	}
	sorted, err := tabular.SortRowsBy(key, rows)
	if err != nil {
		return err
	}
	return csvfile.WriteFile(out, sorted)
}
