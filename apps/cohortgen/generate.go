package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/trezcool/cohortgen/core"
	"github.com/trezcool/cohortgen/core/cohort"
	"github.com/trezcool/cohortgen/services/metrics"
	"github.com/trezcool/cohortgen/storage/csvfile"
	"github.com/trezcool/cohortgen/storage/database"
	"github.com/trezcool/cohortgen/storage/database/inmem"
	"github.com/trezcool/cohortgen/storage/database/sqlx"
	"github.com/trezcool/cohortgen/storage/redis"
)

type generateOpts struct {
	seed     string
	students int
	sink     string
	out      string
	courses  string
}

// apply overrides the configuration with the flags that were set.
func (opts generateOpts) apply(conf *core.Config) error {
	if opts.seed != "" {
		seed, err := strconv.ParseInt(opts.seed, 10, 64)
		if err != nil {
			return core.NewArgumentError(fmt.Sprintf("seed must be an integer (got %q)", opts.seed))
		}
		conf.Generator.RandomSeed = &seed
	}
	if opts.students != 0 {
		conf.Generator.StudentsAmount = opts.students
	}
	if opts.sink != "" {
		conf.Output.Sink = opts.sink
	}
	if opts.out != "" {
		conf.Output.Dir = opts.out
	}
	if opts.courses != "" {
		conf.Generator.CoursesFile = opts.courses
	}
	return nil
}

func (cli *commandLine) generate(opts generateOpts) error {
	ctx := context.Background()
	conf := *cli.conf
	if err := opts.apply(&conf); err != nil {
		return err
	}
	validate, translator := cohort.NewConfigValidator()
	if err := core.ValidateConfig(validate, translator, &conf); err != nil {
		var vErr *core.ValidationError
		if errors.As(err, &vErr) {
			for _, fld := range vErr.Fields {
				fmt.Fprintf(cli.out, "  %s: %s\n", fld.Field, fld.Error)
			}
		}
		return err
	}
	genOpts, err := cohort.OptionsFromConfig(conf.Generator)
	if err != nil {
		return err
	}

	sink, closeSink, err := cli.openSink(&conf)
	if err != nil {
		return err
	}
	defer closeSink()

	deps := cohort.ServiceDeps{
		Options: genOpts,
		Logger:  cli.logger,
		Source:  cohort.NewStaticSource(cohort.CourseSpecsFromConfig(conf.Generator.Courses)...),
		Sink:    sink,
		Metrics: metricsvc.Recorder{},
	}
	if conf.Generator.CoursesFile != "" {
		deps.Source = csvfile.NewCourseSource(conf.Generator.CoursesFile)
	}
	if conf.Redis.Enabled {
		client := redisdb.NewClient(conf.Redis)
		defer func() { _ = client.Close() }()
		deps.Registry = redisdb.NewClaimRegistry(client, conf.AppName)
	}

	res, err := cohort.NewService(deps).Generate(ctx)
	if err != nil {
		return err
	}
	cli.printResult(res)
	return nil
}

// openSink returns the configured sink and a func releasing it.
func (cli *commandLine) openSink(conf *core.Config) (cohort.TableSink, func(), error) {
	switch conf.Output.Sink {
	case "csv":
		sink, err := csvfile.NewTableSink(conf.Output.Dir)
		return sink, func() {}, err
	case "database":
		db, err := cli.openDB(conf)
		if err != nil {
			return nil, nil, err
		}
		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return sqlxrepos.NewTableStore(db), func() { _ = db.Close() }, nil
	case "memory":
		db, _ := inmemdb.Open()
		return inmemdb.NewTableStore(db), func() {}, nil
	default:
		return nil, nil, core.NewArgumentError(fmt.Sprintf("unknown sink %q", conf.Output.Sink))
	}
}

func (cli *commandLine) printResult(res cohort.RunResult) {
	defer func() {
		for _, fail := range res.Failures {
			fmt.Fprintf(cli.out, "skipped: %v\n", fail)
		}
	}()

	if !cli.interactive() {
		for _, tbl := range res.Tables {
			fmt.Fprintf(cli.out, "%s\t%s\t%d\t%d\n", tbl.Course.Name, tbl.Archetype, len(tbl.Records), tbl.Requested)
		}
		return
	}

	fmt.Fprintf(cli.out, "run %s (seed %d)\n\n", res.Run.ID, res.Run.Seed)
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COURSE\tARCHETYPE\tSTUDENTS\tREQUESTED\t")
	for _, tbl := range res.Tables {
		mark := ""
		if tbl.UnderCapacity() {
			mark = "(under capacity)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", tbl.Course.Name, tbl.Archetype, len(tbl.Records), tbl.Requested, mark)
	}
	_ = tw.Flush()
}
