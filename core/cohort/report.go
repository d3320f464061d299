package cohort

import (
	"strconv"

	"github.com/trezcool/cohortgen/core/tabular"
)

// EnrollmentMatrix lists, for every student found in `tables`, whether they belong to each course.
// Courses are columns in first-seen order; rows are sorted by student id.
func EnrollmentMatrix(tables []Table) (tabular.Rows, error) {
	var courses []string
	courseIdx := make(map[string]int)
	enrolled := make(map[int]map[int]bool) // student -> course idx
	var students []int

	for _, tbl := range tables {
		idx, ok := courseIdx[tbl.Course.Name]
		if !ok {
			idx = len(courses)
			courseIdx[tbl.Course.Name] = idx
			courses = append(courses, tbl.Course.Name)
		}
		for _, id := range tbl.StudentIDs() {
			if _, seen := enrolled[id]; !seen {
				enrolled[id] = make(map[int]bool)
				students = append(students, id)
			}
			enrolled[id][idx] = true
		}
	}

	rows := make(tabular.Rows, 0, len(students)+1)
	rows = append(rows, append([]string{"id"}, courses...))
	for _, id := range students {
		row := make([]string, 0, len(courses)+1)
		row = append(row, strconv.Itoa(id))
		for i := range courses {
			row = append(row, strconv.FormatBool(enrolled[id][i]))
		}
		rows = append(rows, row)
	}
	return tabular.SortRowsBy("id", rows)
}
