package logsvc

import (
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	rollbarerrors "github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/cohortgen/core"
	"github.com/trezcool/cohortgen/core/cohort"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(rollbarerrors.StackTracer)
	return &RollbarLogger{std: std}
}

// NewStdLogger returns the std logger of the app, writing to `out` and to conf.LogFile when set.
// The returned closer closes the log file.
func NewStdLogger(out io.Writer, conf *core.Config) (*log.Logger, io.Closer, error) {
	prefix := conf.AppName + " : "
	flags := log.LstdFlags | log.Lmicroseconds | log.Lshortfile
	if conf.LogFile == "" {
		return log.New(out, prefix, flags), io.NopCloser(nil), nil
	}
	file, err := os.OpenFile(conf.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening log file %s", conf.LogFile)
	}
	return log.New(io.MultiWriter(out, file), prefix, flags), file, nil
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, cohort.Run, cohort.UnitError
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case cohort.Run:
			newArgs = append(newArgs, map[string]interface{}{
				"run_id":          a.ID,
				"seed":            a.Seed,
				"students_amount": a.StudentsAmount,
			})
		case cohort.UnitError:
			newArgs = append(newArgs, a.Err, map[string]interface{}{
				"course":    a.Course,
				"archetype": a.Archetype.String(),
			})
		default:
			newArgs = append(newArgs, arg)
		}
	}
	return newArgs
}

func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print(msg, args)
	l.std.Fatal(msg)
}
