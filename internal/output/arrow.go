package output

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"github.com/inodb/vibe-vcfdist/internal/matrix"
)

// DefaultChunkSize is the number of rows per Arrow record batch.
const DefaultChunkSize = 1024

// SampleColumn is the name of the Arrow column holding sample names.
const SampleColumn = "sample"

// ArrowMatrixWriter writes presence rows to an Arrow IPC file: a sample
// name column followed by one uint8 column per mutation identity.
type ArrowMatrixWriter struct {
	schema         *arrow.Schema
	writer         *ipc.FileWriter
	names          *array.StringBuilder
	cells          []*array.Uint8Builder
	chunkSize      int
	numRowsInChunk int
}

// NewArrowMatrixWriter creates a writer with one column per key. Rows are
// flushed as record batches of chunkSize rows. The IPC file format needs a
// seekable destination, usually an *os.File.
func NewArrowMatrixWriter(w io.WriteSeeker, keys []string, chunkSize int) (*ArrowMatrixWriter, error) {
	return newArrowMatrixWriter(w, keys, chunkSize, memory.NewGoAllocator())
}

func newArrowMatrixWriter(w io.WriteSeeker, keys []string, chunkSize int, pool memory.Allocator) (*ArrowMatrixWriter, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	fields := make([]arrow.Field, 0, len(keys)+1)
	fields = append(fields, arrow.Field{Name: SampleColumn, Type: arrow.BinaryTypes.String})
	for _, k := range keys {
		fields = append(fields, arrow.Field{Name: k, Type: arrow.PrimitiveTypes.Uint8})
	}
	schema := arrow.NewSchema(fields, nil)

	writer, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	if err != nil {
		return nil, fmt.Errorf("create arrow writer: %w", err)
	}

	cells := make([]*array.Uint8Builder, len(keys))
	for i := range cells {
		cells[i] = array.NewUint8Builder(pool)
	}

	return &ArrowMatrixWriter{
		schema:    schema,
		writer:    writer,
		names:     array.NewStringBuilder(pool),
		cells:     cells,
		chunkSize: chunkSize,
	}, nil
}

// Write appends one sample row.
func (aw *ArrowMatrixWriter) Write(sample string, row []uint8) error {
	if len(row) != len(aw.cells) {
		return fmt.Errorf("mismatch in number of fields: expected %d, got %d", len(aw.cells), len(row))
	}

	aw.names.Append(sample)
	for i, v := range row {
		aw.cells[i].Append(v)
	}
	aw.numRowsInChunk++

	if aw.numRowsInChunk == aw.chunkSize {
		return aw.writeChunk()
	}
	return nil
}

func (aw *ArrowMatrixWriter) writeChunk() error {
	// NewArray resets each builder for the next chunk
	cols := make([]arrow.Array, 0, len(aw.cells)+1)
	cols = append(cols, aw.names.NewArray())
	for _, b := range aw.cells {
		cols = append(cols, b.NewArray())
	}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	record := array.NewRecord(aw.schema, cols, int64(aw.numRowsInChunk))
	defer record.Release()

	if err := aw.writer.Write(record); err != nil {
		return fmt.Errorf("write arrow record: %w", err)
	}
	aw.numRowsInChunk = 0
	return nil
}

// Close writes any buffered rows and the file footer and releases the
// column builders.
func (aw *ArrowMatrixWriter) Close() error {
	defer aw.release()
	if aw.numRowsInChunk > 0 {
		if err := aw.writeChunk(); err != nil {
			return err
		}
	}
	return aw.writer.Close()
}

func (aw *ArrowMatrixWriter) release() {
	aw.names.Release()
	for _, b := range aw.cells {
		b.Release()
	}
}

// WriteArrow writes the whole presence matrix as an Arrow IPC file.
func WriteArrow(w io.WriteSeeker, p *matrix.Presence, chunkSize int) error {
	aw, err := NewArrowMatrixWriter(w, p.Keys(), chunkSize)
	if err != nil {
		return err
	}
	for i, row := range p.Dense() {
		if err := aw.Write(p.Samples()[i], row); err != nil {
			aw.release()
			return err
		}
	}
	return aw.Close()
}
