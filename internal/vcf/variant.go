package vcf

import "strings"

// Variant represents a single record from a single-sample VCF file.
type Variant struct {
	Chrom  string   // Chromosome name (e.g., "12", "chr12")
	Pos    int64    // 1-based genomic position
	ID     string   // Variant identifier (e.g., rs ID)
	Ref    string   // Reference allele
	Alt    []string // Alternate alleles; GT index k refers to Alt[k-1]
	Qual   string   // Quality score, kept raw
	Filter string   // Filter status (PASS or filter name)
	Info   string   // Raw INFO column
	Format string   // Colon-delimited FORMAT keys
	Sample string   // Colon-delimited genotype column of the sample
	Line   int      // Line number in the source file
}

// IsMultiAllelic returns true if the record lists more than one alternate allele.
func (v *Variant) IsMultiAllelic() bool {
	return len(v.Alt) > 1
}

// AltAllele returns the allele referenced by GT index k (k >= 1).
func (v *Variant) AltAllele(k int) (string, bool) {
	if k < 1 || k > len(v.Alt) {
		return "", false
	}
	return v.Alt[k-1], true
}

// SampleField returns the sample subfield named key, located through FORMAT.
func (v *Variant) SampleField(key string) (string, bool) {
	keys := strings.Split(v.Format, ":")
	values := strings.Split(v.Sample, ":")
	for i, k := range keys {
		if k != key {
			continue
		}
		if i >= len(values) {
			// Trailing FORMAT fields may be omitted
			return "", true
		}
		return values[i], true
	}
	return "", false
}

// Genotype returns the raw GT subfield of the sample column.
// When FORMAT has no GT key the first subfield is used.
func (v *Variant) Genotype() string {
	if gt, ok := v.SampleField("GT"); ok {
		return gt
	}
	gt, _, _ := strings.Cut(v.Sample, ":")
	return gt
}
