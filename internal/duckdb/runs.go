package duckdb

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-vcfdist/internal/cohort"
	"github.com/inodb/vibe-vcfdist/internal/distance"
	"github.com/inodb/vibe-vcfdist/internal/mutation"
)

// Run describes one invocation: its settings and the size of its result.
type Run struct {
	ID            string
	CreatedAt     time.Time
	InputDir      string
	Mutation      mutation.Config
	Metric        distance.Metric
	Method        distance.Method // empty when no clustering was done
	NumSamples    int
	NumIdentities int
}

// NewRun creates a run with a fresh id.
func NewRun(inputDir string, cfg mutation.Config, metric distance.Metric, method distance.Method) *Run {
	return &Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		InputDir:  inputDir,
		Mutation:  cfg,
		Metric:    metric,
		Method:    method,
	}
}

// WriteRun stores a run with its input fingerprints, sample mutations and,
// when d is not nil, the upper triangle of its distance matrix. The run row
// is inserted last, so a failed write never shows up in Runs.
func (s *Store) WriteRun(ctx context.Context, run *Run, inputs []FileFingerprint, samples []*cohort.Sample, d *distance.Matrix) error {
	distinct := make(map[string]struct{})
	for _, smp := range samples {
		for _, id := range smp.Mutations {
			distinct[id.Key()] = struct{}{}
		}
	}
	run.NumSamples = len(samples)
	run.NumIdentities = len(distinct)

	if err := s.writeRunData(ctx, run.ID, inputs, samples, d); err != nil {
		if derr := s.DeleteRun(ctx, run.ID); derr != nil {
			return fmt.Errorf("%w (cleanup failed: %v)", err, derr)
		}
		return err
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.InputDir,
		run.Mutation.QCFilter, run.Mutation.IndelExpansion, run.Mutation.SNPsOnly,
		string(run.Mutation.MultiAllelicHet), string(run.Metric), string(run.Method),
		run.NumSamples, run.NumIdentities)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *Store) writeRunData(ctx context.Context, runID string, inputs []FileFingerprint, samples []*cohort.Sample, d *distance.Matrix) error {
	if err := s.appendRows(ctx, "run_inputs", func(a *goduckdb.Appender) error {
		for _, fp := range inputs {
			if err := a.AppendRow(runID, fp.Path, fp.Size, fp.ModTime); err != nil {
				return fmt.Errorf("append input: %w", err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := s.appendRows(ctx, "sample_mutations", func(a *goduckdb.Appender) error {
		for _, smp := range samples {
			for _, id := range smp.Mutations {
				typ := mutation.ClassifyAllele(id.Ref, id.Allele)
				if err := a.AppendRow(runID, smp.Name, id.Key(), id.Pos, id.Ref, id.Allele, string(typ)); err != nil {
					return fmt.Errorf("append sample mutation: %w", err)
				}
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if d == nil {
		return nil
	}
	return s.appendRows(ctx, "distances", func(a *goduckdb.Appender) error {
		labels := d.Labels()
		for i := range labels {
			for j := i + 1; j < len(labels); j++ {
				if err := a.AppendRow(runID, labels[i], labels[j], d.At(i, j)); err != nil {
					return fmt.Errorf("append distance: %w", err)
				}
			}
		}
		return nil
	})
}

// DeleteRun removes a run and everything stored for it.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	for _, table := range []string{"runs", "run_inputs", "sample_mutations", "distances"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id=?", runID); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}

// Runs lists all stored runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, created_at, input_dir,
		qc_filter, indel_expansion, snps_only, multiallelic_het,
		metric, method, num_samples, num_identities
		FROM runs
		ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var het, metric, method string
		if err := rows.Scan(
			&r.ID, &r.CreatedAt, &r.InputDir,
			&r.Mutation.QCFilter, &r.Mutation.IndelExpansion, &r.Mutation.SNPsOnly, &het,
			&metric, &method, &r.NumSamples, &r.NumIdentities,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Mutation.MultiAllelicHet = mutation.HetPolicy(het)
		r.Metric = distance.Metric(metric)
		r.Method = distance.Method(method)
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// SamplesWithMutation returns the names of the samples of a run carrying the
// identity with the given key, sorted.
func (s *Store) SamplesWithMutation(ctx context.Context, runID, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT sample
		FROM sample_mutations
		WHERE run_id=? AND identity=?
		ORDER BY sample`, runID, key)
	if err != nil {
		return nil, fmt.Errorf("query samples with mutation: %w", err)
	}
	defer rows.Close()

	var samples []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}

// Distances rebuilds the distance matrix of a run. It returns
// distance.ErrEmptyInput when the run stored no distances.
func (s *Store) Distances(ctx context.Context, runID string) (*distance.Matrix, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sample_a, sample_b, distance
		FROM distances
		WHERE run_id=?`, runID)
	if err != nil {
		return nil, fmt.Errorf("query distances: %w", err)
	}
	defer rows.Close()

	type pair struct{ a, b string }
	values := make(map[pair]float64)
	seen := make(map[string]bool)
	var labels []string
	for rows.Next() {
		var p pair
		var v float64
		if err := rows.Scan(&p.a, &p.b, &v); err != nil {
			return nil, fmt.Errorf("scan distance: %w", err)
		}
		values[p] = v
		for _, l := range []string{p.a, p.b} {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distances: %w", err)
	}

	slices.Sort(labels)
	square := make([][]float64, len(labels))
	for i, a := range labels {
		square[i] = make([]float64, len(labels))
		for j, b := range labels {
			if v, ok := values[pair{a, b}]; ok {
				square[i][j] = v
			} else {
				square[i][j] = values[pair{b, a}]
			}
		}
	}
	return distance.NewMatrix(labels, square)
}

// Inputs returns the input fingerprints recorded for a run.
func (s *Store) Inputs(ctx context.Context, runID string) ([]FileFingerprint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, size, mod_time
		FROM run_inputs
		WHERE run_id=?
		ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("query inputs: %w", err)
	}
	defer rows.Close()

	var fps []FileFingerprint
	for rows.Next() {
		var fp FileFingerprint
		if err := rows.Scan(&fp.Path, &fp.Size, &fp.ModTime); err != nil {
			return nil, fmt.Errorf("scan input: %w", err)
		}
		fps = append(fps, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inputs: %w", err)
	}
	return fps, nil
}

// Stale reports whether any input of a run was modified or removed since
// the run was stored.
func (s *Store) Stale(ctx context.Context, runID string) (bool, error) {
	fps, err := s.Inputs(ctx, runID)
	if err != nil {
		return false, err
	}
	for _, fp := range fps {
		cur, err := StatFile(fp.Path)
		if err != nil || !fp.Matches(cur) {
			return true, nil
		}
	}
	return false, nil
}
