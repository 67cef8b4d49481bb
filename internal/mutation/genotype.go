// Package mutation filters VCF records and resolves called alleles into
// canonical mutation identities.
package mutation

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrUnresolvableGenotype is matched when GT is empty, non-numeric or
	// references an allele outside the ALT list.
	ErrUnresolvableGenotype = errors.New("unresolvable genotype")

	// ErrAmbiguousAllele is matched when the GT of a multi-allelic record
	// cannot be split into allele indices.
	ErrAmbiguousAllele = errors.New("ambiguous allele")
)

// GenotypeError describes a GT subfield that could not be resolved.
type GenotypeError struct {
	Kind    error // ErrUnresolvableGenotype or ErrAmbiguousAllele
	GT      string
	Message string
}

func (e *GenotypeError) Error() string {
	return fmt.Sprintf("%v: GT %q: %s", e.Kind, e.GT, e.Message)
}

// Is reports whether target is the kind of this error.
func (e *GenotypeError) Is(target error) bool {
	return target == e.Kind
}

// Genotype holds the allele indices of a GT call: 0 is the reference,
// k refers to ALT[k-1].
type Genotype []int

// ParseGenotype splits gt on '/' or '|' and validates every index against
// the number of alternate alleles.
func ParseGenotype(gt string, altCount int) (Genotype, error) {
	if gt == "" {
		return nil, &GenotypeError{Kind: ErrUnresolvableGenotype, GT: gt, Message: "empty genotype"}
	}

	multi := altCount > 1
	tokens := strings.FieldsFunc(gt, func(r rune) bool { return r == '/' || r == '|' })
	if len(tokens) == 0 || strings.Count(gt, "/")+strings.Count(gt, "|") != len(tokens)-1 {
		return nil, &GenotypeError{Kind: ErrUnresolvableGenotype, GT: gt, Message: "empty allele"}
	}

	g := make(Genotype, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "." {
			return nil, &GenotypeError{Kind: ErrUnresolvableGenotype, GT: gt, Message: "missing allele call"}
		}

		k, err := strconv.Atoi(tok)
		if err != nil || k < 0 {
			if multi {
				return nil, &GenotypeError{Kind: ErrAmbiguousAllele, GT: gt,
					Message: fmt.Sprintf("cannot decompose %q into allele indices", tok)}
			}
			return nil, &GenotypeError{Kind: ErrUnresolvableGenotype, GT: gt,
				Message: fmt.Sprintf("non-numeric allele index %q", tok)}
		}

		if k > altCount {
			// "12" against two ALTs is most likely an undelimited 1/2
			if multi && len(tok) > 1 {
				return nil, &GenotypeError{Kind: ErrAmbiguousAllele, GT: gt,
					Message: fmt.Sprintf("allele index %q has no delimiter", tok)}
			}
			return nil, &GenotypeError{Kind: ErrUnresolvableGenotype, GT: gt,
				Message: fmt.Sprintf("allele index %d exceeds %d alternate alleles", k, altCount)}
		}
		g = append(g, k)
	}
	return g, nil
}

// IsHeterozygous returns true if the call lists two or more distinct alleles.
func (g Genotype) IsHeterozygous() bool {
	if len(g) < 2 {
		return false
	}
	for _, k := range g[1:] {
		if k != g[0] {
			return true
		}
	}
	return false
}

// Called returns the distinct nonzero allele indices in ascending order.
func (g Genotype) Called() []int {
	var out []int
	for _, k := range g {
		if k > 0 && !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}
