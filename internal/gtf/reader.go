// Package gtf reads and writes 9-column GTF annotation lines.
package gtf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"

	"github.com/hivseq/polyscan/internal/region"
)

// Reader reads GTF records. Coordinates are converted from GTF's 1-based
// inclusive convention to 0-based half-open.
type Reader struct {
	scanner    *bufio.Scanner
	path       string
	lineNumber int
	closers    []io.Closer
}

// NewReader creates a reader over r. path is only used in error messages.
func NewReader(r io.Reader, path string) *Reader {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for long attribute columns
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	return &Reader{scanner: scanner, path: path}
}

// Open opens a GTF file, decompressing it when the name ends in .gz.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open GTF file: %w", err)
	}

	var reader io.Reader = f
	closers := []io.Closer{f}

	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		reader = gz
		closers = append([]io.Closer{gz}, closers...)
	}

	r := NewReader(reader, path)
	r.closers = closers
	return r, nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// LineNumber returns the number of the last line read.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Next reads the next record.
// Returns nil, nil when there are no more records.
func (r *Reader) Next() (*region.Record, error) {
	for r.scanner.Scan() {
		r.lineNumber++
		line := strings.TrimRight(r.scanner.Text(), "\r")

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := r.parseLine(line)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GTF: %w", err)
	}
	return nil, nil
}

// ReadAll reads every remaining record.
func (r *Reader) ReadAll() ([]region.Record, error) {
	var recs []region.Record
	for {
		rec, err := r.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return recs, nil
		}
		recs = append(recs, *rec)
	}
}

func (r *Reader) malformed(format string, args ...any) error {
	return &region.MalformedInputError{
		Path:    r.path,
		Line:    r.lineNumber,
		Message: fmt.Sprintf(format, args...),
	}
}

// parseLine parses a single GTF line.
func (r *Reader) parseLine(line string) (*region.Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, r.malformed("expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, r.malformed("invalid start %q", fields[3])
	}
	end, err := strconv.Atoi(fields[4])
	if err != nil {
		return nil, r.malformed("invalid end %q", fields[4])
	}
	if start < 1 {
		return nil, r.malformed("start %d is not a 1-based coordinate", start)
	}
	if start > end {
		return nil, &region.InvalidRangeError{
			SeqName: fields[0], Start: start, End: end,
			Reason: fmt.Sprintf("start after end at line %d", r.lineNumber),
		}
	}

	strand := fields[6]
	switch strand {
	case region.StrandForward, region.StrandReverse, region.StrandUnknown:
	default:
		return nil, r.malformed("invalid strand %q", strand)
	}

	attrs, err := ParseAttributes(fields[8])
	if err != nil {
		return nil, r.malformed("%v", err)
	}

	return &region.Record{
		SeqName:    fields[0],
		Source:     fields[1],
		Feature:    fields[2],
		Start:      start - 1,
		End:        end,
		Score:      fields[5],
		Strand:     strand,
		Frame:      fields[7],
		Attributes: attrs,
	}, nil
}

// ParseAttributes parses a GTF attribute column, keeping attribute order.
// Format: key "value"; key "value"; ...
// Semicolons inside quoted values do not end an attribute.
func ParseAttributes(attrStr string) (region.Attributes, error) {
	var attrs region.Attributes

	for _, part := range splitAttributes(attrStr) {
		part = strings.TrimSpace(part)
		if part == "" || part == "." {
			continue
		}

		// Find the first space to separate key from value
		idx := strings.IndexAny(part, " \t")
		if idx == -1 {
			return nil, fmt.Errorf("attribute %q has no value", part)
		}

		key := part[:idx]
		value := strings.TrimSpace(part[idx+1:])
		if strings.HasPrefix(value, `"`) {
			if len(value) < 2 || !strings.HasSuffix(value, `"`) {
				return nil, fmt.Errorf("attribute %q has an unterminated quote", key)
			}
			value = value[1 : len(value)-1]
		}

		attrs = append(attrs, region.Attribute{Key: key, Value: value})
	}

	return attrs, nil
}

func splitAttributes(s string) []string {
	var (
		parts  []string
		quoted bool
		start  int
	)
	for i := range len(s) {
		switch s[i] {
		case '"':
			quoted = !quoted
		case ';':
			if !quoted {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
