// Package vcf provides single-sample VCF file parsing functionality.
package vcf

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedInput is matched by every ParseError.
var ErrMalformedInput = errors.New("malformed input")

// fixedColumns are the mandatory leading VCF columns, without the leading '#'.
var fixedColumns = []string{"CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}

// Parser reads variants from a single-sample VCF file.
type Parser struct {
	reader      *bufio.Reader
	file        *os.File
	gzipReader  *gzip.Reader
	path        string
	lineNumber  int
	header      []string
	columns     []string
	sampleNames []string // sample names from #CHROM header line
}

// NewParser creates a new VCF parser for the given file.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := &Parser{file: file, path: path}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read vcf header: %w", err)
	}

	// Seek back to beginning
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	// Check for gzip magic number (0x1f, 0x8b)
	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// readLine returns the next line without its terminator.
// The final line of a file may lack a newline.
func (p *Parser) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if err != io.EOF || line == "" {
			return "", err
		}
	}
	p.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

// parseHeader reads metadata lines up to and including the column header.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.readLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read header: %w", err)
		}

		if strings.HasPrefix(line, "##") {
			p.header = append(p.header, line)
			continue
		}

		if strings.HasPrefix(line, "#CHROM") || strings.HasPrefix(line, "CHROM") {
			p.header = append(p.header, line)
			return p.setColumns(strings.Split(strings.TrimPrefix(line, "#"), "\t"))
		}

		// free-form comments before the column header
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return p.errorf("expected #CHROM header line")
	}

	return p.errorf("no #CHROM header line found")
}

// setColumns validates the header columns by name.
func (p *Parser) setColumns(cols []string) error {
	if len(cols) < len(fixedColumns)+2 {
		return p.errorf("expected FORMAT and one sample column, found %d columns", len(cols))
	}
	for i, want := range fixedColumns {
		if cols[i] != want {
			return p.errorf("expected column %d to be %s, found %q", i+1, want, cols[i])
		}
	}
	if cols[len(fixedColumns)] != "FORMAT" {
		return p.errorf("expected column %d to be FORMAT, found %q", len(fixedColumns)+1, cols[len(fixedColumns)])
	}
	if len(cols) > len(fixedColumns)+2 {
		return p.errorf("multi-sample VCF with %d samples is not supported", len(cols)-len(fixedColumns)-1)
	}

	p.columns = cols
	p.sampleNames = cols[len(fixedColumns)+1:]
	return nil
}

// Next reads the next variant from the VCF file.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*Variant, error) {
	for {
		line, err := p.readLine()
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read variant line: %w", err)
		}

		// Skip empty lines and stray comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return p.parseLine(line)
	}
}

// parseLine parses a single VCF data line into a Variant.
func (p *Parser) parseLine(line string) (*Variant, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != len(p.columns) {
		return nil, p.errorf("expected %d columns, found %d", len(p.columns), len(fields))
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || pos < 0 {
		return nil, p.errorf("invalid position: %s", fields[1])
	}

	return &Variant{
		Chrom:  fields[0],
		Pos:    pos,
		ID:     fields[2],
		Ref:    fields[3],
		Alt:    strings.Split(fields[4], ","),
		Qual:   fields[5],
		Filter: fields[6],
		Info:   fields[7],
		Format: fields[8],
		Sample: fields[9],
		Line:   p.lineNumber,
	}, nil
}

func (p *Parser) errorf(format string, args ...any) *ParseError {
	return &ParseError{
		Path:    p.path,
		Line:    p.lineNumber,
		Message: fmt.Sprintf(format, args...),
	}
}

// Header returns the VCF header lines.
func (p *Parser) Header() []string {
	return p.header
}

// SampleNames returns the sample column name from the #CHROM header line.
func (p *Parser) SampleNames() []string {
	return p.sampleNames
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents malformed VCF input with line context.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("vcf parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}

// Is reports whether target is ErrMalformedInput.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedInput
}
