package mutation

import (
	"go.uber.org/zap"

	"github.com/inodb/vibe-vcfdist/internal/vcf"
)

// VariantType classifies a called allele.
type VariantType string

const (
	TypeSNP   VariantType = "SNP"
	TypeINDEL VariantType = "INDEL"
)

// ClassifyAllele returns SNP for equal-length substitutions and INDEL for
// everything else, including the spanning deletion allele "*".
func ClassifyAllele(ref, allele string) VariantType {
	if len(ref) == len(allele) && allele != "*" {
		return TypeSNP
	}
	return TypeINDEL
}

// Allele is one called alternate allele of an accepted record.
type Allele struct {
	Index int         // GT index into ALT (1-based)
	Seq   string      // ALT[Index-1]
	Type  VariantType // SNP or INDEL
}

// Call is an accepted record with its called alleles.
type Call struct {
	Variant *vcf.Variant
	Alleles []Allele
}

// Filter decides which records carry usable calls.
type Filter struct {
	cfg    Config
	logger *zap.Logger
}

// NewFilter creates a filter for the given configuration.
func NewFilter(cfg Config) *Filter {
	if cfg.QCFilter == "" {
		cfg.QCFilter = DefaultQCFilter
	}
	if cfg.MultiAllelicHet == "" {
		cfg.MultiAllelicHet = HetSplit
	}
	return &Filter{cfg: cfg, logger: zap.NewNop()}
}

// SetLogger sets the logger for dropped-record messages.
func (f *Filter) SetLogger(l *zap.Logger) {
	f.logger = l
}

// Apply returns the call for an accepted record, nil for a dropped record,
// or an error when the genotype of a passing record cannot be resolved.
func (f *Filter) Apply(v *vcf.Variant) (*Call, error) {
	if v.Filter != f.cfg.QCFilter {
		f.drop(v, "filter")
		return nil, nil
	}

	gt, err := ParseGenotype(v.Genotype(), len(v.Alt))
	if err != nil {
		return nil, err
	}

	var indices []int
	switch {
	case !v.IsMultiAllelic() || f.cfg.MultiAllelicHet == HetDrop:
		if gt.IsHeterozygous() {
			f.drop(v, "heterozygous")
			return nil, nil
		}
		if gt[0] > 0 {
			indices = []int{gt[0]}
		}
	default:
		indices = gt.Called()
	}

	if len(indices) == 0 {
		f.drop(v, "reference call")
		return nil, nil
	}

	call := &Call{Variant: v}
	for _, k := range indices {
		seq, _ := v.AltAllele(k)
		a := Allele{Index: k, Seq: seq, Type: ClassifyAllele(v.Ref, seq)}
		if f.cfg.SNPsOnly && a.Type == TypeINDEL {
			continue
		}
		call.Alleles = append(call.Alleles, a)
	}

	if len(call.Alleles) == 0 {
		f.drop(v, "indel")
		return nil, nil
	}
	return call, nil
}

func (f *Filter) drop(v *vcf.Variant, reason string) {
	f.logger.Debug("dropped record",
		zap.String("chrom", v.Chrom),
		zap.Int64("pos", v.Pos),
		zap.Int("line", v.Line),
		zap.String("reason", reason))
}
