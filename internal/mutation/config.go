package mutation

import "fmt"

// HetPolicy decides how heterozygous calls at multi-allelic sites are treated.
type HetPolicy string

const (
	// HetSplit resolves every distinct nonzero allele of the call.
	HetSplit HetPolicy = "split"
	// HetDrop drops heterozygous calls, as for single-allele sites.
	HetDrop HetPolicy = "drop"
)

// ParseHetPolicy validates a policy name.
func ParseHetPolicy(s string) (HetPolicy, error) {
	switch HetPolicy(s) {
	case HetSplit, HetDrop:
		return HetPolicy(s), nil
	case "":
		return HetSplit, nil
	}
	return "", fmt.Errorf("unknown multi-allelic heterozygous policy %q (want split or drop)", s)
}

// DefaultQCFilter is the FILTER value a record must carry to be kept.
const DefaultQCFilter = "PASS"

// Config parameterizes filtering and identity resolution.
type Config struct {
	QCFilter        string    // required FILTER value
	IndelExpansion  bool      // expand non-SNP alleles into per-base identities
	SNPsOnly        bool      // drop INDEL alleles
	MultiAllelicHet HetPolicy // heterozygous calls at multi-allelic sites
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		QCFilter:        DefaultQCFilter,
		MultiAllelicHet: HetSplit,
	}
}
