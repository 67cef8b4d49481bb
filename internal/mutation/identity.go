package mutation

import (
	"cmp"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/inodb/vibe-vcfdist/internal/vcf"
)

// NoOffset marks an identity that was not produced by indel expansion.
const NoOffset = -1

// Identity is the canonical key of a mutation: position, reference bases and
// called allele. Two records yield the same identity iff all three match.
type Identity struct {
	Pos    int64
	Ref    string
	Allele string
	Offset int // per-base offset from indel expansion, NoOffset otherwise
}

// NewIdentity returns an unexpanded identity.
func NewIdentity(pos int64, ref, allele string) Identity {
	return Identity{Pos: pos, Ref: ref, Allele: allele, Offset: NoOffset}
}

// Key renders the identity as POS_REF_ALLELE, followed by the offset when
// the identity came from indel expansion.
func (id Identity) Key() string {
	key := strconv.FormatInt(id.Pos, 10) + "_" + id.Ref + "_" + id.Allele
	if id.Offset >= 0 {
		key += strconv.Itoa(id.Offset)
	}
	return key
}

func (id Identity) String() string {
	return id.Key()
}

// Compare orders identities by position, then reference, allele and offset.
func Compare(a, b Identity) int {
	return cmp.Or(
		cmp.Compare(a.Pos, b.Pos),
		cmp.Compare(a.Ref, b.Ref),
		cmp.Compare(a.Allele, b.Allele),
		cmp.Compare(a.Offset, b.Offset),
	)
}

// ExpansionSpan returns the number of per-base identities an allele expands
// to. Only alleles longer than one base expand: insertions by the number of
// inserted bases, multi-base substitutions by the allele length. Deletions
// and single-base alleles yield 1.
func ExpansionSpan(ref, allele string) int {
	if !expands(allele) {
		return 1
	}
	if d := len(allele) - len(ref); d > 0 {
		return d
	}
	return len(allele)
}

func expands(allele string) bool {
	return len(allele) > 1
}

// Resolver maps VCF records to mutation identities.
type Resolver struct {
	cfg    Config
	filter *Filter
}

// NewResolver creates a resolver with its own filter.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg, filter: NewFilter(cfg)}
}

// SetLogger sets the logger used by the underlying filter.
func (r *Resolver) SetLogger(l *zap.Logger) {
	r.filter.SetLogger(l)
}

// Config returns the resolver configuration.
func (r *Resolver) Config() Config {
	return r.cfg
}

// Resolve filters v and returns its identities. A dropped record yields
// nil, nil. Genotype errors carry the line and position of the record.
func (r *Resolver) Resolve(v *vcf.Variant) ([]Identity, error) {
	call, err := r.filter.Apply(v)
	if err != nil {
		return nil, fmt.Errorf("line %d (%s:%d): %w", v.Line, v.Chrom, v.Pos, err)
	}
	if call == nil {
		return nil, nil
	}
	return r.Identities(call), nil
}

// Identities maps an accepted call to identities, one per called allele, or
// one per base of the called allele when indel expansion is enabled.
func (r *Resolver) Identities(call *Call) []Identity {
	v := call.Variant
	ids := make([]Identity, 0, len(call.Alleles))
	for _, a := range call.Alleles {
		base := NewIdentity(v.Pos, v.Ref, a.Seq)
		if !r.cfg.IndelExpansion || !expands(a.Seq) {
			ids = append(ids, base)
			continue
		}
		// span comes from this allele, never from another ALT of the record
		for off := range ExpansionSpan(v.Ref, a.Seq) {
			id := base
			id.Offset = off
			ids = append(ids, id)
		}
	}
	return ids
}
