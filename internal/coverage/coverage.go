// Package coverage computes and renders read depth along a reference.
package coverage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/biogo/hts/sam"

	"github.com/hivseq/polyscan/internal/align"
	"github.com/hivseq/polyscan/internal/region"
)

// Default window, 1-based inclusive, spanning an HIV-1 genome.
const (
	DefaultFrom = 1
	DefaultTo   = 10300
)

// Config holds coverage parameters.
type Config struct {
	From         int
	To           int
	PreviewWidth int
	PreviewRows  int
}

// DefaultConfig returns the default window and preview size.
func DefaultConfig() Config {
	return Config{
		From:         DefaultFrom,
		To:           DefaultTo,
		PreviewWidth: 100,
		PreviewRows:  10,
	}
}

// Depth returns per-position depth over the 1-based inclusive window
// [from, to]; element i is the depth at from+i. A hit covers as many
// positions from its start as its CIGAR has M, = and X bases.
func Depth(hits []align.Hit, from, to int) ([]int, error) {
	if from < 1 || to < from {
		return nil, fmt.Errorf("invalid coverage window %d-%d", from, to)
	}

	// diff[i] is the change in depth entering position from+i.
	diff := make([]int, to-from+2)
	for i, h := range hits {
		span, err := AlignedLength(h.Cigar)
		if err != nil {
			return nil, &region.MalformedInputError{
				Message: fmt.Sprintf("hit %d (%s): %v", i+1, h.ReadID, err),
			}
		}
		if span == 0 {
			continue
		}
		start := h.Pos + 1
		end := start + span - 1
		if end < from || start > to {
			continue
		}
		diff[max(start, from)-from]++
		diff[min(end, to)-from+1]--
	}

	depth := make([]int, to-from+1)
	cur := 0
	for i := range depth {
		cur += diff[i]
		depth[i] = cur
	}
	return depth, nil
}

// AlignedLength returns the number of M, = and X bases in a CIGAR string.
func AlignedLength(cigar string) (int, error) {
	if cigar == "" || cigar == "*" {
		return 0, nil
	}
	if err := align.CheckCigar(cigar); err != nil {
		return 0, err
	}
	c, err := sam.ParseCigar([]byte(cigar))
	if err != nil {
		return 0, err
	}

	n := 0
	for _, op := range c {
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			n += op.Len()
		}
	}
	return n, nil
}

// Max returns the highest depth and its 1-based position. The position
// is 0 when depth is empty.
func Max(depth []int, from int) (value, pos int) {
	for i, d := range depth {
		if pos == 0 || d > value {
			value, pos = d, from+i
		}
	}
	return value, pos
}

// WriteTable writes depth as a tab-separated position/depth table.
func WriteTable(w io.Writer, depth []int, from int) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write([]string{"position", "depth"}); err != nil {
		return err
	}
	for i, d := range depth {
		if err := cw.Write([]string{strconv.Itoa(from + i), strconv.Itoa(d)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
