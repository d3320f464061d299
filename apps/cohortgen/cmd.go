package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/cohortgen/core"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	out    io.Writer
	openDB func(conf *core.Config) (*sqlx.DB, error)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  generate [-seed N] [-students N] [-sink csv|database|memory] [-out DIR] [-courses FILE] - generate a cohort")
	fmt.Fprintln(cli.out, "  enrollments [-dir DIR] [-out FILE] - student/course matrix of a generated CSV dir")
	fmt.Fprintln(cli.out, "  sort -key COLUMN -in FILE [-out FILE] - sort the rows of a CSV file")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command on the configured database")
}

// interactive reports whether the output is a terminal.
func (cli *commandLine) interactive() bool {
	f, ok := cli.out.(*os.File)
	return ok && isTerminalFunc(int(f.Fd()))
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	generateCmd := flag.NewFlagSet("generate", flag.ContinueOnError)
	generateSeed := generateCmd.String("seed", "", "Random seed, for reproducible output. Random when empty.")
	generateStudents := generateCmd.Int("students", 0, "Size of the student universe. Defaults to the configured amount.")
	generateSink := generateCmd.String("sink", "", "Where to write the tables: csv, database or memory.")
	generateOut := generateCmd.String("out", "", "Output directory of the csv sink.")
	generateCourses := generateCmd.String("courses", "", "CSV file of courses (name[,lessons,webinars,tests]).")

	enrollmentsCmd := flag.NewFlagSet("enrollments", flag.ContinueOnError)
	enrollmentsDir := enrollmentsCmd.String("dir", "", "Directory of generated CSV tables. Defaults to the configured output dir.")
	enrollmentsOut := enrollmentsCmd.String("out", "", "Output CSV file. Defaults to stdout.")

	sortCmd := flag.NewFlagSet("sort", flag.ContinueOnError)
	sortKey := sortCmd.String("key", "", "Column to sort by.")
	sortIn := sortCmd.String("in", "", "CSV file to sort.")
	sortOut := sortCmd.String("out", "", "Output CSV file. Defaults to the input file.")

	for _, fs := range []*flag.FlagSet{generateCmd, enrollmentsCmd, sortCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "generate":
		if err := generateCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.generate(generateOpts{
			seed:     *generateSeed,
			students: *generateStudents,
			sink:     *generateSink,
			out:      *generateOut,
			courses:  *generateCourses,
		})
	case "enrollments":
		if err := enrollmentsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		dir := *enrollmentsDir
		if dir == "" {
			dir = cli.conf.Output.Dir
		}
		return cli.enrollments(dir, *enrollmentsOut)
	case "sort":
		if err := sortCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *sortKey == "" || *sortIn == "" {
			sortCmd.Usage()
			return errHelp
		}
		out := *sortOut
		if out == "" {
			out = *sortIn
		}
		return cli.sortFile(*sortKey, *sortIn, out)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
