package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-vcfdist/internal/distance"
	"github.com/inodb/vibe-vcfdist/internal/matrix"
	"github.com/inodb/vibe-vcfdist/internal/output"
)

func newMatrixCmd(a *app) *cobra.Command {
	var (
		outputFile string
		format     string
		transpose  bool
		chunkSize  int
	)

	cmd := &cobra.Command{
		Use:   "matrix <sample-dir>",
		Short: "Build the mutation presence/absence matrix",
		Long: `Build the presence/absence matrix of mutation identities across all
samples in a directory. Rows are samples and columns are identities
(POS_REF_ALLELE), or the other way round with --transpose.`,
		Example: `  vibe-vcfdist matrix vcfs/
  vibe-vcfdist matrix --transpose -o matrix.tsv vcfs/
  vibe-vcfdist matrix --format arrow -o matrix.arrow vcfs/`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "tab" && format != "arrow" {
				return usageError{fmt.Errorf("unknown output format %q (want tab or arrow)", format)}
			}
			if format == "arrow" && (outputFile == "" || outputFile == "-") {
				return usageError{fmt.Errorf("--format arrow needs an output file (-o)")}
			}
			s, err := loadSettings()
			if err != nil {
				return err
			}
			c, err := a.loadCohort(cmd.Context(), args[0], s)
			if err != nil {
				return err
			}
			p, err := matrix.FromSamples(c.samples)
			if err != nil {
				return err
			}

			err = writeTo(cmd, outputFile, func(w io.Writer) error {
				if format == "arrow" {
					ws, ok := w.(io.WriteSeeker)
					if !ok {
						return fmt.Errorf("arrow output %s is not seekable", outputFile)
					}
					return output.WriteArrow(ws, p, chunkSize)
				}
				return output.WritePresence(w, p, transpose)
			})
			if err != nil {
				return err
			}
			return a.record(cmd.Context(), c, "", "", nil)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "tab", "Output format: tab, arrow")
	cmd.Flags().BoolVar(&transpose, "transpose", false, "Write identities as rows and samples as columns (tab format)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", output.DefaultChunkSize, "Rows per Arrow record batch")
	return cmd
}

func newDistanceCmd(a *app) *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "distance <sample-dir>",
		Short: "Compute pairwise sample distances",
		Long: `Compute the distance between every pair of samples. The jaccard metric
is 1 - |A∩B| / |A∪B| over the mutation sets; the count metric is the
difference of the number of mutations, which is 0 for samples with equally
many but different mutations.`,
		Example: `  vibe-vcfdist distance vcfs/
  vibe-vcfdist distance --metric count --indel-expansion vcfs/`,
		Args: exactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{"metric": "metric"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			c, err := a.loadCohort(cmd.Context(), args[0], s)
			if err != nil {
				return err
			}
			d, err := distance.Compute(s.metric, c.samples, nil)
			if err != nil {
				return err
			}

			if err := writeTo(cmd, outputFile, func(w io.Writer) error {
				return output.WriteDistances(w, d)
			}); err != nil {
				return err
			}
			return a.record(cmd.Context(), c, s.metric, "", d)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().String("metric", string(distance.MetricJaccard), "Distance metric: jaccard, count")
	return cmd
}

func newClusterCmd(a *app) *cobra.Command {
	var (
		outputFile  string
		linkageFile string
	)

	cmd := &cobra.Command{
		Use:   "cluster <sample-dir>",
		Short: "Cluster samples hierarchically and write a Newick dendrogram",
		Long: `Cluster samples agglomeratively on their pairwise distances and write the
dendrogram as a Newick tree, which any tree viewer can draw. The merge
steps can also be written as a table with --linkage.`,
		Example: `  vibe-vcfdist cluster vcfs/ > samples.nwk
  vibe-vcfdist cluster --method complete --linkage linkage.tsv -o samples.nwk vcfs/`,
		Args: exactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{"metric": "metric", "method": "method"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			c, err := a.loadCohort(cmd.Context(), args[0], s)
			if err != nil {
				return err
			}
			d, err := distance.Compute(s.metric, c.samples, nil)
			if err != nil {
				return err
			}
			merges, err := distance.Linkage(d, s.method)
			if err != nil {
				return err
			}

			if err := writeTo(cmd, outputFile, func(w io.Writer) error {
				return output.WriteNewick(w, merges, d.Labels())
			}); err != nil {
				return err
			}
			if linkageFile != "" {
				if err := writeTo(cmd, linkageFile, func(w io.Writer) error {
					return output.WriteLinkage(w, merges)
				}); err != nil {
					return err
				}
			}
			return a.record(cmd.Context(), c, s.metric, s.method, d)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Newick output file (default: stdout)")
	cmd.Flags().StringVar(&linkageFile, "linkage", "", "Also write the merge steps to this file")
	cmd.Flags().String("metric", string(distance.MetricJaccard), "Distance metric: jaccard, count")
	cmd.Flags().String("method", string(distance.MethodAverage), "Linkage method: single, complete, average, weighted")
	return cmd
}

func newMutationsCmd(a *app) *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "mutations <sample-dir>",
		Short: "List the called mutations of every sample",
		Example: `  vibe-vcfdist mutations vcfs/
  vibe-vcfdist mutations --snps-only -o mutations.tsv vcfs/`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			c, err := a.loadCohort(cmd.Context(), args[0], s)
			if err != nil {
				return err
			}

			if err := writeTo(cmd, outputFile, func(w io.Writer) error {
				return output.WriteMutations(w, c.samples)
			}); err != nil {
				return err
			}
			return a.record(cmd.Context(), c, "", "", nil)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}
