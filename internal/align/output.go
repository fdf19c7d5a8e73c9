package align

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hivseq/polyscan/internal/region"
)

// ResultsFile and StatsFile are the default output names.
const (
	ResultsFile = "alignment_results.csv"
	StatsFile   = "alignment_stats.txt"
)

// HitColumns is the header of the results table.
var HitColumns = []string{"read_id", "ref_name", "ref_pos", "mapq", "cigar", "sequence"}

// HitWriter writes hits as CSV with 1-based reference positions.
type HitWriter struct {
	w             *csv.Writer
	headerWritten bool
}

// NewHitWriter creates a new results writer.
func NewHitWriter(w io.Writer) *HitWriter {
	return &HitWriter{w: csv.NewWriter(w)}
}

// WriteHeader writes the column header line.
func (hw *HitWriter) WriteHeader() error {
	if hw.headerWritten {
		return nil
	}
	hw.headerWritten = true
	return hw.w.Write(HitColumns)
}

// Write writes hits, emitting the header first if needed.
func (hw *HitWriter) Write(hits []Hit) error {
	if err := hw.WriteHeader(); err != nil {
		return err
	}
	for _, h := range hits {
		row := []string{
			h.ReadID,
			h.RefName,
			strconv.Itoa(h.Pos + 1),
			strconv.Itoa(h.MapQ),
			h.Cigar,
			h.Sequence,
		}
		if err := hw.w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data.
func (hw *HitWriter) Flush() error {
	hw.w.Flush()
	return hw.w.Error()
}

// ReadHits reads a results table written by HitWriter. Only ref_pos and
// cigar are required; other columns are filled when present.
func ReadHits(r io.Reader) ([]Hit, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, csvError(err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, req := range []string{"ref_pos", "cigar"} {
		if _, ok := idx[req]; !ok {
			return nil, &region.MalformedInputError{Line: 1, Message: fmt.Sprintf("no %s column in header", req)}
		}
	}
	get := func(rec []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var hits []Hit
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := cr.FieldPos(0)

		pos, err := strconv.Atoi(get(rec, "ref_pos"))
		if err != nil || pos < 1 {
			return nil, &region.MalformedInputError{Line: line, Message: fmt.Sprintf("invalid ref_pos %q", get(rec, "ref_pos"))}
		}
		h := Hit{
			ReadID:   get(rec, "read_id"),
			RefName:  get(rec, "ref_name"),
			Pos:      pos - 1,
			Cigar:    get(rec, "cigar"),
			Sequence: get(rec, "sequence"),
		}
		if s := get(rec, "mapq"); s != "" {
			if h.MapQ, err = strconv.Atoi(s); err != nil {
				return nil, &region.MalformedInputError{Line: line, Message: fmt.Sprintf("invalid mapq %q", s)}
			}
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// WriteStats writes a plain-text summary of an alignment run.
func WriteStats(w io.Writer, s Stats, minMapQ int) error {
	pct := 0.0
	if s.Total > 0 {
		pct = 100 * float64(s.Mapped) / float64(s.Total)
	}
	_, err := fmt.Fprintf(w, `Alignment Statistics
====================
Chunks processed:        %d
Total reads:             %d
Unmapped reads:          %d
Low MAPQ reads (<%d):    %d
High quality alignments: %d
Alignment rate:          %.2f%%
Dropped blank reads:     %d
Dropped invalid reads:   %d
`, s.Chunks, s.Total, s.Unmapped, minMapQ, s.LowMapQ, s.Mapped, pct, s.Blank, s.Invalid)
	return err
}
