package vcf

import "testing"

func TestVariant_Genotype(t *testing.T) {
	tests := []struct {
		name   string
		format string
		sample string
		want   string
	}{
		{"GT only", "GT", "1", "1"},
		{"GT first", "GT:DP:GQ", "1/1:12:99", "1/1"},
		{"GT not first", "DP:GT", "12:0/1", "0/1"},
		{"no GT key falls back to first subfield", "DP", "12", "12"},
		{"trailing GT dropped", "DP:GT", "12", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Variant{Format: tt.format, Sample: tt.sample}
			if got := v.Genotype(); got != tt.want {
				t.Errorf("Genotype() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVariant_AltAllele(t *testing.T) {
	v := &Variant{Ref: "A", Alt: []string{"C", "GT"}}

	tests := []struct {
		k      int
		want   string
		wantOK bool
	}{
		{0, "", false},
		{1, "C", true},
		{2, "GT", true},
		{3, "", false},
	}

	for _, tt := range tests {
		got, ok := v.AltAllele(tt.k)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("AltAllele(%d) = %q, %v; want %q, %v", tt.k, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestVariant_IsMultiAllelic(t *testing.T) {
	if (&Variant{Alt: []string{"C"}}).IsMultiAllelic() {
		t.Error("single alt should not be multi-allelic")
	}
	if !(&Variant{Alt: []string{"C", "T"}}).IsMultiAllelic() {
		t.Error("two alts should be multi-allelic")
	}
}
