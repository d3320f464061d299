package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/cohortgen/apps/api/echo"
	"github.com/trezcool/cohortgen/core"
	"github.com/trezcool/cohortgen/core/cohort"
	logsvc "github.com/trezcool/cohortgen/services/logger"
	metricsvc "github.com/trezcool/cohortgen/services/metrics"
	"github.com/trezcool/cohortgen/storage/csvfile"
	"github.com/trezcool/cohortgen/storage/database"
	inmemdb "github.com/trezcool/cohortgen/storage/database/inmem"
	sqlxrepos "github.com/trezcool/cohortgen/storage/database/sqlx"
	redisdb "github.com/trezcool/cohortgen/storage/redis"
)

// store is what the server generates into and reads from.
type store interface {
	cohort.TableSink
	cohort.TableLister
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	std, logFile, err := logsvc.NewStdLogger(os.Stdout, conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	defer func() { _ = logFile.Close() }()
	std.SetPrefix("API : ")

	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!(conf.Debug || conf.TestMode))

	validate, translator := cohort.NewConfigValidator()
	if err = core.ValidateConfig(validate, translator, conf); err != nil {
		logger.Fatal(fmt.Sprintf("invalid configuration: %v", err), err)
	}
	opts, err := cohort.OptionsFromConfig(conf.Generator)
	if err != nil {
		logger.Fatal(fmt.Sprintf("invalid generator options: %v", err), err)
	}

	// set up store
	var tables store
	if conf.Output.Sink == "database" {
		db, dbErr := setUpDB(conf)
		if dbErr != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", dbErr), dbErr)
		}
		defer func() {
			if err = db.Close(); err != nil {
				logger.Error("closing database", err)
			}
		}()
		tables = sqlxrepos.NewTableStore(db)
	} else {
		memDB, _ := inmemdb.Open()
		tables = inmemdb.NewTableStore(memDB)
	}

	var source cohort.CourseSource = cohort.NewStaticSource(cohort.CourseSpecsFromConfig(conf.Generator.Courses)...)
	if conf.Generator.CoursesFile != "" {
		source = csvfile.NewCourseSource(conf.Generator.CoursesFile)
	}
	var registry func() cohort.ClaimRegistry
	if conf.Redis.Enabled {
		client := redisdb.NewClient(conf.Redis)
		defer func() { _ = client.Close() }()
		registry = func() cohort.ClaimRegistry { return redisdb.NewClaimRegistry(client, conf.AppName) }
	}

	// runs share the claim registry namespace: one at a time
	var generating sync.Mutex
	generate := func(ctx context.Context, seed *int64) (cohort.RunResult, error) {
		generating.Lock()
		defer generating.Unlock()

		runOpts := opts
		runOpts.Seed = seed
		deps := cohort.ServiceDeps{
			Options: runOpts,
			Logger:  logger,
			Source:  source,
			Sink:    tables,
			Metrics: metricsvc.Recorder{},
		}
		if registry != nil {
			deps.Registry = registry()
		}
		return cohort.NewService(deps).Generate(ctx)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	res, err := generate(context.Background(), opts.Seed)
	if err != nil {
		logger.Fatal(fmt.Sprintf("generating initial run: %v", err), err)
	}
	logger.Info(fmt.Sprintf("serving run %s", res.Run.ID), res.Run)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:     conf,
			Logger:   logger,
			Store:    tables,
			Generate: generate,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
