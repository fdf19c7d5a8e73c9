// Package tabular reads and writes region tables: delimited rows of
// sequence name, 0-based start, exclusive end, and an optional sub-sequence
// and target count.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hivseq/polyscan/internal/region"
)

// Column names written in the header line.
var Columns = []string{"Chromosome", "Start", "End", "Sequence", "Count"}

// ParseDelimiter maps a delimiter name or literal to a rune.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "tab", `\t`, "\t":
		return '\t', nil
	case "comma", ",":
		return ',', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter %q (want tab or comma)", s)
	}
}

// Reader reads regions from a delimited table. A header row is detected
// when the first row's start column is not an integer.
type Reader struct {
	cr       *csv.Reader
	path     string
	sawFirst bool
}

// NewReader creates a table reader. path is only used in error messages.
func NewReader(r io.Reader, path string, delim rune) *Reader {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &Reader{cr: cr, path: path}
}

// Next reads the next region.
// Returns nil, nil when there are no more rows.
func (r *Reader) Next() (*region.Region, error) {
	for {
		fields, err := r.cr.Read()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &region.MalformedInputError{Path: r.path, Line: pe.Line, Message: pe.Err.Error()}
			}
			return nil, fmt.Errorf("read table: %w", err)
		}
		line, _ := r.cr.FieldPos(0)

		first := !r.sawFirst
		r.sawFirst = true
		if first && isHeader(fields) {
			continue
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}

		return r.parseRow(fields, line)
	}
}

// ReadAll reads every remaining region.
func (r *Reader) ReadAll() ([]region.Region, error) {
	var regions []region.Region
	for {
		reg, err := r.Next()
		if err != nil {
			return nil, err
		}
		if reg == nil {
			return regions, nil
		}
		regions = append(regions, *reg)
	}
}

func isHeader(fields []string) bool {
	if len(fields) < 2 {
		return false
	}
	_, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	return err != nil
}

func (r *Reader) parseRow(fields []string, line int) (*region.Region, error) {
	malformed := func(format string, args ...any) error {
		return &region.MalformedInputError{Path: r.path, Line: line, Message: fmt.Sprintf(format, args...)}
	}

	if len(fields) < 3 {
		return nil, malformed("expected at least 3 columns, got %d", len(fields))
	}

	start, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return nil, malformed("invalid start %q", fields[1])
	}
	end, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return nil, malformed("invalid end %q", fields[2])
	}
	if start < 0 || end <= start {
		return nil, &region.InvalidRangeError{
			SeqName: fields[0], Start: start, End: end,
			Reason: fmt.Sprintf("region must satisfy 0 <= start < end (line %d)", line),
		}
	}

	reg := &region.Region{Name: fields[0], Start: start, End: end}
	if len(fields) > 3 {
		reg.Sequence = strings.TrimSpace(fields[3])
	}
	if len(fields) > 4 && strings.TrimSpace(fields[4]) != "" {
		count, err := strconv.Atoi(strings.TrimSpace(fields[4]))
		if err != nil {
			return nil, malformed("invalid count %q", fields[4])
		}
		reg.Count = count
	}
	return reg, nil
}

// Writer writes regions as delimited rows.
type Writer struct {
	cw *csv.Writer
}

// NewWriter creates a table writer using delim between columns.
func NewWriter(w io.Writer, delim rune) *Writer {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	return &Writer{cw: cw}
}

// WriteHeader writes the header line.
func (tw *Writer) WriteHeader() error {
	return tw.cw.Write(Columns)
}

// Write writes a single region.
func (tw *Writer) Write(r region.Region) error {
	return tw.cw.Write([]string{
		r.Name,
		strconv.Itoa(r.Start),
		strconv.Itoa(r.End),
		r.Sequence,
		strconv.Itoa(r.Count),
	})
}

// Flush flushes any buffered data to the underlying writer.
func (tw *Writer) Flush() error {
	tw.cw.Flush()
	return tw.cw.Error()
}
