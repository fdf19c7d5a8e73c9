package gtf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hivseq/polyscan/internal/region"
)

// Writer writes records as GTF lines, converting 0-based half-open
// coordinates to 1-based inclusive.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a new GTF writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes a single record. Empty records cannot be expressed in GTF
// and are rejected.
func (gw *Writer) Write(rec region.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.Len() == 0 {
		return &region.InvalidRangeError{
			SeqName: rec.SeqName, Start: rec.Start, End: rec.End,
			Reason: "empty interval cannot be written as GTF",
		}
	}
	for _, a := range rec.Attributes {
		if strings.ContainsRune(a.Value, '"') {
			return fmt.Errorf("attribute %s: value %q contains a double quote", a.Key, a.Value)
		}
	}

	values := []string{
		rec.SeqName,
		orDot(rec.Source),
		orDot(rec.Feature),
		strconv.Itoa(rec.Start + 1),
		strconv.Itoa(rec.End),
		orDot(rec.Score),
		orDot(rec.Strand),
		orDot(rec.Frame),
		FormatAttributes(rec.Attributes),
	}

	_, err := gw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (gw *Writer) Flush() error {
	return gw.w.Flush()
}

// FormatAttributes renders attributes as key "value"; pairs. Values are
// written verbatim; GTF has no escape syntax.
func FormatAttributes(attrs region.Attributes) string {
	if len(attrs) == 0 {
		return "."
	}
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = a.Key + ` "` + a.Value + `";`
	}
	return strings.Join(parts, " ")
}

func orDot(s string) string {
	if s == "" {
		return "."
	}
	return s
}
