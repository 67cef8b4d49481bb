package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-vcfdist/internal/cohort"
	"github.com/inodb/vibe-vcfdist/internal/distance"
	"github.com/inodb/vibe-vcfdist/internal/duckdb"
	"github.com/inodb/vibe-vcfdist/internal/mutation"
)

// settings are the resolved configuration values of one invocation.
type settings struct {
	mutation mutation.Config
	workers  int
	metric   distance.Metric
	method   distance.Method
	db       string
}

// loadSettings reads and validates the shared settings from viper.
func loadSettings() (settings, error) {
	het, err := mutation.ParseHetPolicy(viper.GetString("multiallelic_het"))
	if err != nil {
		return settings{}, usageError{err}
	}
	metric, err := distance.ParseMetric(viper.GetString("metric"))
	if err != nil {
		return settings{}, usageError{err}
	}
	method, err := distance.ParseMethod(viper.GetString("method"))
	if err != nil {
		return settings{}, usageError{err}
	}

	filter := viper.GetString("filter")
	if filter == "" {
		filter = mutation.DefaultQCFilter
	}

	return settings{
		mutation: mutation.Config{
			QCFilter:        filter,
			IndelExpansion:  viper.GetBool("indel_expansion"),
			SNPsOnly:        viper.GetBool("snps_only"),
			MultiAllelicHet: het,
		},
		workers: viper.GetInt("workers"),
		metric:  metric,
		method:  method,
		db:      viper.GetString("db"),
	}, nil
}

// cohortRun is a loaded sample directory.
type cohortRun struct {
	dir      string
	paths    []string
	samples  []*cohort.Sample
	settings settings
}

// loadCohort finds and reads the VCF files under dir.
func (a *app) loadCohort(ctx context.Context, dir string, s settings) (*cohortRun, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, usageError{fmt.Errorf("%s is not a directory", dir)}
	}

	paths, err := cohort.FindSampleFiles(dir)
	if err != nil {
		return nil, err
	}
	a.logger.Info("reading samples",
		zap.String("dir", dir),
		zap.Int("files", len(paths)),
		zap.String("filter", s.mutation.QCFilter),
		zap.Bool("indel_expansion", s.mutation.IndelExpansion),
		zap.Bool("snps_only", s.mutation.SNPsOnly))

	loader := cohort.NewLoader(cohort.Config{Mutation: s.mutation, Workers: s.workers})
	loader.SetLogger(a.logger)
	samples, err := loader.LoadFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	return &cohortRun{dir: dir, paths: paths, samples: samples, settings: s}, nil
}

// record stores the run in the DuckDB file named by --db, if any. metric
// and method are empty for commands that computed no distances.
func (a *app) record(ctx context.Context, c *cohortRun, metric distance.Metric, method distance.Method, d *distance.Matrix) error {
	if c.settings.db == "" {
		return nil
	}

	store, err := duckdb.Open(c.settings.db)
	if err != nil {
		return err
	}
	defer store.Close()

	// fingerprints must resolve from any working directory
	paths := make([]string, len(c.paths))
	for i, p := range c.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		paths[i] = abs
	}
	inputs, err := duckdb.StatFiles(paths)
	if err != nil {
		return err
	}

	dir, err := filepath.Abs(c.dir)
	if err != nil {
		dir = c.dir
	}
	run := duckdb.NewRun(dir, c.settings.mutation, metric, method)
	if err := store.WriteRun(ctx, run, inputs, c.samples, d); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	a.logger.Info("recorded run",
		zap.String("run_id", run.ID),
		zap.String("db", c.settings.db),
		zap.Int("samples", run.NumSamples),
		zap.Int("identities", run.NumIdentities))
	return nil
}

// bindFlags binds command-local flags to viper keys. Flags shared by several
// commands are bound when the command runs, so each binds its own flag.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, flag := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

// openOutput returns the named file, or the command's stdout for "" or "-".
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

// writeTo opens path, runs write on it and closes it.
func writeTo(cmd *cobra.Command, path string, write func(w io.Writer) error) error {
	w, closeFn, err := openOutput(cmd, path)
	if err != nil {
		return err
	}
	if err := write(w); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}
