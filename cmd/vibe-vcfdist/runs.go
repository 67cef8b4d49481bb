package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-vcfdist/internal/duckdb"
	"github.com/inodb/vibe-vcfdist/internal/output"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List and query runs recorded with --db",
		Example: `  vibe-vcfdist runs --db runs.duckdb
  vibe-vcfdist runs samples --db runs.duckdb <run-id> 10_A_T
  vibe-vcfdist runs distances --db runs.duckdb <run-id>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context())
			if err != nil {
				return err
			}

			tw := output.NewTabWriter(cmd.OutOrStdout())
			if err := tw.WriteRow("run_id", "created_at", "input_dir", "metric", "method",
				"samples", "identities", "stale"); err != nil {
				return err
			}
			for _, r := range runs {
				stale, err := store.Stale(cmd.Context(), r.ID)
				if err != nil {
					return err
				}
				if err := tw.WriteRow(r.ID, r.CreatedAt.Format(time.RFC3339), r.InputDir,
					orDash(string(r.Metric)), orDash(string(r.Method)),
					strconv.Itoa(r.NumSamples), strconv.Itoa(r.NumIdentities),
					strconv.FormatBool(stale)); err != nil {
					return err
				}
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "samples <run-id> <identity>",
		Short: "List the samples of a run carrying a mutation",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			samples, err := store.SamplesWithMutation(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			for _, s := range samples {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "distances <run-id>",
		Short: "Print the distance matrix of a run",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			d, err := store.Distances(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			return output.WriteDistances(cmd.OutOrStdout(), d)
		},
	})

	return cmd
}

// openStore opens the database named by --db, which must be set.
func openStore() (*duckdb.Store, error) {
	path := viper.GetString("db")
	if path == "" {
		return nil, usageError{fmt.Errorf("--db is required")}
	}
	return duckdb.Open(path)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
