package vcf

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParser_Cohort_Sample1(t *testing.T) {
	testFile := findTestFile(t, filepath.Join("cohort", "sample1.vcf"))

	parser, err := NewParser(testFile)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	v, err := parser.Next()
	if err != nil {
		t.Fatalf("Failed to read variant: %v", err)
	}
	if v == nil {
		t.Fatal("Expected a variant, got nil")
	}

	if v.Chrom != "chr1" {
		t.Errorf("Expected chrom chr1, got %s", v.Chrom)
	}
	if v.Pos != 10 {
		t.Errorf("Expected pos 10, got %d", v.Pos)
	}
	if v.Ref != "A" {
		t.Errorf("Expected ref A, got %s", v.Ref)
	}
	if len(v.Alt) != 1 || v.Alt[0] != "T" {
		t.Errorf("Expected alt [T], got %v", v.Alt)
	}
	if v.Filter != "PASS" {
		t.Errorf("Expected filter PASS, got %s", v.Filter)
	}
	if v.Genotype() != "1" {
		t.Errorf("Expected GT 1, got %s", v.Genotype())
	}
	if v.Line != 5 {
		t.Errorf("Expected line 5, got %d", v.Line)
	}

	count := 1
	for {
		v, err := parser.Next()
		if err != nil {
			t.Fatalf("Error reading variant: %v", err)
		}
		if v == nil {
			break
		}
		count++
	}
	if count != 3 {
		t.Errorf("Expected 3 variants, got %d", count)
	}
}

func TestParser_Header(t *testing.T) {
	testFile := findTestFile(t, filepath.Join("cohort", "sample1.vcf"))

	parser, err := NewParser(testFile)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	header := parser.Header()
	if len(header) != 4 {
		t.Fatalf("Expected 4 header lines, got %d", len(header))
	}
	if header[0] != "##fileformat=VCFv4.2" {
		t.Errorf("Missing ##fileformat header, got %q", header[0])
	}
	if !strings.HasPrefix(header[3], "#CHROM") {
		t.Errorf("Missing #CHROM header line, got %q", header[3])
	}

	names := parser.SampleNames()
	if len(names) != 1 || names[0] != "sample1" {
		t.Errorf("Expected sample names [sample1], got %v", names)
	}
}

func TestParser_HeaderWithoutHash(t *testing.T) {
	input := "##fileformat=VCFv4.2\n" +
		"CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS\n" +
		"1\t5\t.\tA\tG\t.\tPASS\t.\tGT\t1"

	parser, err := NewParserFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	v, err := parser.Next()
	if err != nil {
		t.Fatalf("Failed to read variant: %v", err)
	}
	if v == nil || v.Pos != 5 {
		t.Fatalf("Expected variant at pos 5 from final unterminated line, got %+v", v)
	}
}

func TestParser_CommentBeforeHeader(t *testing.T) {
	input := "##fileformat=VCFv4.2\n" +
		"# exported from the lab pipeline\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS\n" +
		"1\t7\t.\tC\tT\t.\tPASS\t.\tGT\t1\n"

	parser, err := NewParserFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	if names := parser.SampleNames(); len(names) != 1 || names[0] != "S" {
		t.Errorf("Expected sample names [S], got %v", names)
	}

	v, err := parser.Next()
	if err != nil {
		t.Fatalf("Failed to read variant: %v", err)
	}
	if v == nil || v.Pos != 7 {
		t.Fatalf("Expected variant at pos 7, got %+v", v)
	}
}

func TestParser_Gzip(t *testing.T) {
	plain, err := os.ReadFile(findTestFile(t, filepath.Join("cohort", "sample2.vcf")))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(plain); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "sample2.vcf.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	parser, err := NewParser(path)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	v, err := parser.Next()
	if err != nil {
		t.Fatalf("Failed to read variant: %v", err)
	}
	if v == nil || v.Pos != 10 {
		t.Fatalf("Expected variant at pos 10, got %+v", v)
	}
	if v.Genotype() != "1" {
		t.Errorf("Expected GT 1 from GT:DP, got %s", v.Genotype())
	}
}

func TestParser_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		atOpen  bool
		message string
	}{
		{"missing header", "no_header.vcf", true, "expected #CHROM header line"},
		{"multi-sample", "multi_sample.vcf", true, "multi-sample VCF"},
		{"column count mismatch", "short_row.vcf", false, "expected 10 columns, found 9"},
		{"unparsable position", "bad_pos.vcf", false, "invalid position: ten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := findTestFile(t, filepath.Join("malformed", tt.file))

			parser, err := NewParser(path)
			if !tt.atOpen {
				if err != nil {
					t.Fatalf("Unexpected error opening: %v", err)
				}
				defer parser.Close()
				_, err = parser.Next()
			}

			if err == nil {
				t.Fatal("Expected an error")
			}
			if !errors.Is(err, ErrMalformedInput) {
				t.Errorf("Expected ErrMalformedInput, got %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Expected *ParseError, got %T", err)
			}
			if pe.Path != path {
				t.Errorf("Expected path %s in error, got %s", path, pe.Path)
			}
			if !strings.Contains(pe.Message, tt.message) {
				t.Errorf("Expected message containing %q, got %q", tt.message, pe.Message)
			}
		})
	}
}

func TestParser_EmptyInput(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader(""))
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("Expected ErrMalformedInput for empty input, got %v", err)
	}
}

func TestParser_BadHeaderColumn(t *testing.T) {
	input := "#CHROM\tPOSITION\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS\n"
	_, err := NewParserFromReader(strings.NewReader(input))
	if err == nil || !strings.Contains(err.Error(), "expected column 2 to be POS") {
		t.Fatalf("Expected column name error, got %v", err)
	}
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line:    42,
		Message: "expected 10 columns, found 7",
	}

	expected := "vcf parse error at line 42: expected 10 columns, found 7"
	if err.Error() != expected {
		t.Errorf("Error message mismatch: got %q, want %q", err.Error(), expected)
	}

	err.Path = "a.vcf"
	expected = "vcf parse error in a.vcf at line 42: expected 10 columns, found 7"
	if err.Error() != expected {
		t.Errorf("Error message mismatch: got %q, want %q", err.Error(), expected)
	}
}

// findTestFile locates a test file in the testdata directory.
func findTestFile(t *testing.T, name string) string {
	t.Helper()

	// Try different relative paths
	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}
