package reads

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hivseq/polyscan/internal/region"
)

// Trim copies a CSV table, stripping leading cfg.TrimSymbol bases from
// the Sequence column. All other columns pass through unchanged.
func Trim(ctx context.Context, in io.Reader, out io.Writer, cfg Config) (Stats, error) {
	var stats Stats
	if err := cfg.Validate(); err != nil {
		return stats, err
	}
	log := cfg.logger()

	r := csv.NewReader(in)
	r.ReuseRecord = true
	w := csv.NewWriter(out)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return stats, &region.MalformedInputError{Line: 1, Message: "missing header"}
		}
		return stats, csvError(err)
	}
	col := ColumnIndex(header, ColSequence)
	if col < 0 {
		return stats, &region.MalformedInputError{Line: 1, Message: fmt.Sprintf("no %s column in header", ColSequence)}
	}
	if err := w.Write(header); err != nil {
		return stats, fmt.Errorf("write header: %w", err)
	}

	cut := string(cfg.TrimSymbol)
	inChunk := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, csvError(err)
		}
		stats.Reads++

		if col < len(rec) {
			rec[col] = strings.TrimLeft(rec[col], cut)
		}
		if err := w.Write(rec); err != nil {
			return stats, fmt.Errorf("write row: %w", err)
		}
		stats.Written++
		inChunk++

		if inChunk == cfg.ChunkSize {
			if err := flushChunk(w, &stats, log); err != nil {
				return stats, err
			}
			inChunk = 0
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}
	}

	if inChunk > 0 {
		if err := flushChunk(w, &stats, log); err != nil {
			return stats, err
		}
	}
	w.Flush()
	return stats, w.Error()
}

// ColumnIndex returns the index of name in header, or -1.
func ColumnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &region.MalformedInputError{Line: pe.Line, Message: pe.Err.Error()}
	}
	return fmt.Errorf("read CSV: %w", err)
}
