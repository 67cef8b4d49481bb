// Package cohort reads a directory of single-sample VCF files into resolved
// per-sample mutation lists.
package cohort

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-vcfdist/internal/mutation"
	"github.com/inodb/vibe-vcfdist/internal/vcf"
)

// Sample is one organism with the mutations called in its VCF file.
type Sample struct {
	Name      string
	Path      string
	Mutations []mutation.Identity // in file order; repeats only with indel expansion
}

// Count returns the number of mutation entries, including expansion repeats.
func (s *Sample) Count() int {
	return len(s.Mutations)
}

// Set returns the distinct identities of the sample in canonical order.
func (s *Sample) Set() []mutation.Identity {
	ids := slices.Clone(s.Mutations)
	slices.SortFunc(ids, mutation.Compare)
	return slices.Compact(ids)
}

// FileError attaches the offending file to a read or resolve failure.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	msg := e.Err.Error()
	if strings.Contains(msg, e.Path) {
		return msg
	}
	return e.Path + ": " + msg
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Config controls how a cohort is loaded.
type Config struct {
	Mutation mutation.Config
	Workers  int // 0 means runtime.NumCPU()
}

// Loader streams sample files through the filter and identity resolver.
type Loader struct {
	resolver *mutation.Resolver
	workers  int
	logger   *zap.Logger
}

// NewLoader creates a loader for the given configuration.
func NewLoader(cfg Config) *Loader {
	return &Loader{
		resolver: mutation.NewResolver(cfg.Mutation),
		workers:  cfg.Workers,
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for progress and dropped-record messages.
func (l *Loader) SetLogger(lg *zap.Logger) {
	l.logger = lg
	l.resolver.SetLogger(lg)
}

// SampleName derives the sample name from a file path: the base name up to
// the first '.'.
func SampleName(path string) string {
	name, _, _ := strings.Cut(filepath.Base(path), ".")
	return name
}

// IsVCF reports whether path has a .vcf or .vcf.gz extension.
func IsVCF(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".vcf") || strings.HasSuffix(lower, ".vcf.gz")
}

// FindSampleFiles walks dir recursively and returns the VCF files in lexical order.
func FindSampleFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsVCF(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk sample directory: %w", err)
	}
	slices.Sort(paths)
	return paths, nil
}

// ReadSample reads one VCF file and resolves its mutations. Only one record
// is held in memory at a time.
func (l *Loader) ReadSample(path string) (*Sample, error) {
	parser, err := vcf.NewParser(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	defer parser.Close()

	s := &Sample{Name: SampleName(path), Path: path}
	if names := parser.SampleNames(); len(names) == 1 && names[0] != s.Name {
		l.logger.Debug("sample column differs from file name",
			zap.String("file", path),
			zap.String("column", names[0]))
	}

	if err := l.resolveAll(s, parser); err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	return s, nil
}

// ReadFrom resolves the mutations of a sample from an open parser, such as
// one created with vcf.NewParserFromReader. The parser is not closed.
func (l *Loader) ReadFrom(name string, parser vcf.VariantParser) (*Sample, error) {
	s := &Sample{Name: name}
	if err := l.resolveAll(s, parser); err != nil {
		return nil, err
	}
	return s, nil
}

// resolveAll appends the identities of every record to s. Without indel
// expansion a sample holds each identity once, however often it is called.
func (l *Loader) resolveAll(s *Sample, parser vcf.VariantParser) error {
	var seen map[mutation.Identity]struct{}
	if !l.resolver.Config().IndelExpansion {
		seen = make(map[mutation.Identity]struct{})
	}
	records := 0
	for {
		v, err := parser.Next()
		if err != nil {
			return err
		}
		if v == nil {
			break
		}
		records++

		ids, err := l.resolver.Resolve(v)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if seen != nil {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
			}
			s.Mutations = append(s.Mutations, id)
		}
	}

	l.logger.Debug("read sample",
		zap.String("sample", s.Name),
		zap.String("file", s.Path),
		zap.Int("records", records),
		zap.Int("lines", parser.LineNumber()),
		zap.Int("mutations", len(s.Mutations)))
	return nil
}

// Load reads every VCF file under dir. Files are read in parallel and reduced
// in path order, so the result does not depend on scheduling. The first
// failing file aborts the load.
func (l *Loader) Load(ctx context.Context, dir string) ([]*Sample, error) {
	paths, err := FindSampleFiles(dir)
	if err != nil {
		return nil, err
	}
	return l.LoadFiles(ctx, paths)
}

// LoadFiles reads the given files, keeping their order.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) ([]*Sample, error) {
	if len(paths) == 0 {
		l.logger.Warn("no VCF files found")
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make(chan WorkItem)
	go func() {
		defer close(items)
		for i, p := range paths {
			select {
			case items <- WorkItem{Seq: i, Path: p}:
			case <-ctx.Done():
				return
			}
		}
	}()

	samples := make([]*Sample, 0, len(paths))
	seen := make(map[string]string, len(paths))

	err := OrderedCollect(l.ParallelRead(items, l.workers), func(r WorkResult) error {
		if r.Err != nil {
			// stop feeding files while the remaining results drain
			cancel()
			return r.Err
		}
		if prev, ok := seen[r.Sample.Name]; ok {
			cancel()
			return &FileError{Path: r.Path, Err: fmt.Errorf("duplicate sample name %q (also from %s)", r.Sample.Name, prev)}
		}
		seen[r.Sample.Name] = r.Path
		samples = append(samples, r.Sample)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.Info("loaded samples", zap.Int("samples", len(samples)))
	return samples, nil
}
