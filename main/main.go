package main

import (
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/hll-cardinality-bench/benchmark"
	"github.com/yourusername/hll-cardinality-bench/config"
	"github.com/yourusername/hll-cardinality-bench/db/schemas/experiment1"
	"github.com/yourusername/hll-cardinality-bench/db/schemas/experiment2"
	"github.com/yourusername/hll-cardinality-bench/db/schemas/runs"
)

func main() {
	teardown := flag.Bool("teardown", false, "drop the benchmark database and delete the output directory")
	flag.Parse()

	dbCfg := config.LoadDBConfig()
	benchCfg, err := config.LoadBenchConfig()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	if *teardown {
		if err := config.DropDatabase(dbCfg); err != nil {
			logrus.WithError(err).Fatal("teardown failed")
		}
		if err := os.RemoveAll(benchCfg.OutputDir); err != nil {
			logrus.WithError(err).Fatal("failed to delete output directory")
		}
		logrus.Info("teardown complete")
		return
	}

	if err := config.WaitForDB(dbCfg, 30, 2*time.Second); err != nil {
		logrus.WithError(err).Fatal("database never became ready")
	}
	if err := config.DropAndRecreateDatabase(dbCfg); err != nil {
		logrus.WithError(err).Fatal("failed to recreate benchmark database")
	}

	db := config.ConnectDB()
	err = config.ResetDatabase(db,
		&runs.BenchmarkRun{},
		&experiment1.TestKey{},
		&experiment1.ExactResult{},
		&experiment1.HLLResult{},
		&experiment2.UserEvent{},
		&experiment2.DailySketch{},
		&experiment2.UnionResult{},
		&experiment2.ExactWindowResult{},
	)
	if err != nil {
		logrus.WithError(err).Fatal("failed to migrate schemas")
	}

	runID, err := benchmark.NewRun(db, benchCfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to start run")
	}
	logrus.WithField("run_id", runID).Info("starting benchmark run")

	if err := benchmark.RunExperiment1(db, runID, benchCfg); err != nil {
		logrus.WithError(err).Fatal("experiment 1 failed")
	}
	if err := benchmark.ExportExperiment1(db, runID, benchCfg.OutputDir); err != nil {
		logrus.WithError(err).Fatal("experiment 1 export failed")
	}

	if err := benchmark.RunExperiment2(db, runID, benchCfg); err != nil {
		logrus.WithError(err).Fatal("experiment 2 failed")
	}
	if err := benchmark.ExportExperiment2(db, runID, benchCfg.OutputDir); err != nil {
		logrus.WithError(err).Fatal("experiment 2 export failed")
	}

	logrus.WithField("output_dir", benchCfg.OutputDir).
		Info("benchmark complete; run the plotting scripts over the CSV files")
}
