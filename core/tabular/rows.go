// Package tabular holds the row helpers shared by the generator and the reports:
// rows are plain string cells with the header as first row, as read from or written to CSV.
package tabular

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/trezcool/cohortgen/core"
)

// Rows is a header row followed by data rows.
type Rows [][]string

// Header returns the header row, or nil if there is none.
func (r Rows) Header() []string {
	if len(r) == 0 {
		return nil
	}
	return r[0]
}

// Data returns the data rows (everything after the header).
func (r Rows) Data() [][]string {
	if len(r) < 2 {
		return nil
	}
	return r[1:]
}

// Column returns the index of `name` in the header, or -1.
func (r Rows) Column(name string) int {
	for i, col := range r.Header() {
		if col == name {
			return i
		}
	}
	return -1
}

// SortRowsBy returns a copy of `rows` with the data rows sorted ascending on the `key` column.
// The sort is stable: rows sharing a key keep their input order and none is dropped.
// Keys compare numerically when every key parses as an integer, as text otherwise.
func SortRowsBy(key string, rows Rows) (Rows, error) {
	if len(rows) == 0 {
		return nil, core.NewArgumentError("no header row")
	}
	col := rows.Column(key)
	if col < 0 {
		return nil, core.NewArgumentError(fmt.Sprintf("column %q not in header", key))
	}

	data := make([][]string, len(rows)-1)
	copy(data, rows[1:])
	for i, row := range data {
		if col >= len(row) {
			return nil, core.NewArgumentError(fmt.Sprintf("row %d has no %q cell", i+1, key))
		}
	}

	if nums, ok := parseInts(data, col); ok {
		idx := make([]int, len(data))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(i, j int) bool { return nums[idx[i]] < nums[idx[j]] })
		sorted := make([][]string, len(data))
		for i, k := range idx {
			sorted[i] = data[k]
		}
		data = sorted
	} else {
		sort.SliceStable(data, func(i, j int) bool { return data[i][col] < data[j][col] })
	}

	out := make(Rows, 0, len(rows))
	out = append(out, rows[0])
	return append(out, data...), nil
}

func parseInts(data [][]string, col int) ([]int64, bool) {
	nums := make([]int64, len(data))
	for i, row := range data {
		n, err := strconv.ParseInt(row[col], 10, 64)
		if err != nil {
			return nil, false
		}
		nums[i] = n
	}
	return nums, true
}
