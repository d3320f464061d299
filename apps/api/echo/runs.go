package echoapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/cohortgen/core"
	"github.com/trezcool/cohortgen/core/cohort"
	"github.com/trezcool/cohortgen/core/tabular"
	"github.com/trezcool/cohortgen/storage/csvfile"
)

const (
	formatParam = "format"
	formatCSV   = "csv"
	mimeCSV     = "text/csv; charset=utf-8"
)

type (
	runApi struct {
		store    cohort.TableLister
		generate GenerateFunc
	}

	tableSummary struct {
		Course    cohort.Course        `json:"course"`
		Archetype cohort.ArchetypeKind `json:"archetype"`
		Requested int                  `json:"requested"`
		Achieved  int                  `json:"achieved"`
	}

	runSummary struct {
		Run      cohort.Run     `json:"run"`
		Tables   []tableSummary `json:"tables"`
		Failures []string       `json:"failures"`
	}
)

func registerRunAPI(g *echo.Group, store cohort.TableLister, generate GenerateFunc) {
	api := runApi{
		store:    store,
		generate: generate,
	}

	rg := g.Group("/runs")
	rg.GET("", api.query)
	if generate != nil {
		rg.POST("", api.create)
	}

	// detail endpoints
	dg := rg.Group("/:run")
	dg.GET("/tables", api.queryTables)
	dg.GET("/tables/:course/:archetype", api.retrieveTable)
	dg.GET("/enrollments", api.enrollments)
}

// Handlers

func (api *runApi) query(ctx echo.Context) error {
	runs, err := api.store.Runs(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying runs")
	}
	if runs == nil {
		runs = []cohort.Run{}
	}
	return ctx.JSON(http.StatusOK, runs)
}

func (api *runApi) create(ctx echo.Context) error {
	var seed *int64
	if s := ctx.QueryParam("seed"); s != "" {
		val, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return core.NewArgumentError(fmt.Sprintf("seed must be an integer (got %q)", s))
		}
		seed = &val
	}

	res, err := api.generate(ctx.Request().Context(), seed)
	if err != nil {
		return errors.Wrap(err, "generating run")
	}

	summary := runSummary{
		Run:      res.Run,
		Tables:   make([]tableSummary, 0, len(res.Tables)),
		Failures: make([]string, 0, len(res.Failures)),
	}
	for _, tbl := range res.Tables {
		summary.Tables = append(summary.Tables, tableSummary{
			Course:    tbl.Course,
			Archetype: tbl.Archetype,
			Requested: tbl.Requested,
			Achieved:  len(tbl.Records),
		})
	}
	for _, fail := range res.Failures {
		summary.Failures = append(summary.Failures, fail.Error())
	}
	return ctx.JSON(http.StatusCreated, summary)
}

func (api *runApi) queryTables(ctx echo.Context) error {
	tables, err := api.store.Tables(ctx.Request().Context(), ctx.Param("run"))
	if err != nil {
		return errors.Wrap(err, "querying tables")
	}
	if tables == nil {
		tables = []cohort.Table{}
	}
	return ctx.JSON(http.StatusOK, tables)
}

func (api *runApi) retrieveTable(ctx echo.Context) error {
	kind, err := cohort.ParseKind(ctx.Param("archetype"))
	if err != nil {
		return err
	}
	course, err := url.PathUnescape(ctx.Param("course"))
	if err != nil {
		return core.NewArgumentError(fmt.Sprintf("bad course %q", ctx.Param("course")))
	}
	course = core.CleanName(course)

	tables, err := api.store.Tables(ctx.Request().Context(), ctx.Param("run"))
	if err != nil {
		return errors.Wrap(err, "querying tables")
	}
	for _, tbl := range tables {
		if tbl.Course.Name == course && tbl.Archetype == kind {
			if ctx.QueryParam(formatParam) == formatCSV {
				return writeCSV(ctx, tbl.Rows())
			}
			return ctx.JSON(http.StatusOK, tbl)
		}
	}
	return errNoSuchTable
}

func (api *runApi) enrollments(ctx echo.Context) error {
	tables, err := api.store.Tables(ctx.Request().Context(), ctx.Param("run"))
	if err != nil {
		return errors.Wrap(err, "querying tables")
	}
	rows, err := cohort.EnrollmentMatrix(tables)
	if err != nil {
		return err
	}
	if ctx.QueryParam(formatParam) == formatCSV {
		return writeCSV(ctx, rows)
	}
	return ctx.JSON(http.StatusOK, rows)
}

func writeCSV(ctx echo.Context, rows tabular.Rows) error {
	ctx.Response().Header().Set(echo.HeaderContentType, mimeCSV)
	ctx.Response().WriteHeader(http.StatusOK)
	return csvfile.WriteRows(ctx.Response(), rows)
}
