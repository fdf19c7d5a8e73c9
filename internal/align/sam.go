package align

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/hts/sam"

	"github.com/hivseq/polyscan/internal/region"
)

const maxSAMLine = 16 << 20

// cigarOps are the operations accepted in a CIGAR string.
const cigarOps = "MIDNSHP=X"

// CheckCigar reports whether cigar is "*" or a non-empty sequence of
// length and operation pairs. sam.ParseCigar must only see strings that
// pass: it panics on a trailing length or a length of ten or more digits.
func CheckCigar(cigar string) error {
	if cigar == "*" {
		return nil
	}
	if cigar == "" {
		return errors.New("empty CIGAR")
	}
	digits := 0
	for i := range len(cigar) {
		c := cigar[i]
		switch {
		case '0' <= c && c <= '9':
			digits++
			if digits > 9 {
				return fmt.Errorf("CIGAR %q: operation length too long", cigar)
			}
		case strings.IndexByte(cigarOps, c) >= 0:
			if digits == 0 {
				return fmt.Errorf("CIGAR %q: operation %q without length", cigar, c)
			}
			digits = 0
		default:
			return fmt.Errorf("CIGAR %q: unknown operation %q", cigar, c)
		}
	}
	if digits != 0 {
		return fmt.Errorf("CIGAR %q: length without operation", cigar)
	}
	return nil
}

// ParseSAM reads SAM text and keeps mapped records with MAPQ of at least
// minMapQ.
//
// Unmapped records are counted from their FLAG field alone: aligners emit
// them with a sequence but no CIGAR, which sam.Record rejects.
func ParseSAM(r io.Reader, minMapQ int) ([]Hit, Stats, error) {
	var stats Stats

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxSAMLine)

	var (
		headerText []byte
		header     *sam.Header
		started    bool
		hits       []Hit
		lineNum    int
	)
	for sc.Scan() {
		lineNum++
		line := bytes.TrimRight(sc.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		if line[0] == '@' {
			if started {
				return nil, stats, &region.MalformedInputError{Line: lineNum, Message: "header line after records"}
			}
			headerText = append(headerText, line...)
			headerText = append(headerText, '\n')
			continue
		}
		if !started {
			h, err := parseHeader(headerText)
			if err != nil {
				return nil, stats, &region.MalformedInputError{Line: lineNum, Message: fmt.Sprintf("SAM header: %v", err)}
			}
			header, started = h, true
		}
		stats.Total++

		fields := bytes.SplitN(line, []byte{'\t'}, 7)
		if len(fields) < 3 {
			return nil, stats, &region.MalformedInputError{Line: lineNum, Message: "missing SAM fields"}
		}
		flags, err := strconv.ParseUint(string(fields[1]), 0, 16)
		if err != nil {
			return nil, stats, &region.MalformedInputError{Line: lineNum, Message: fmt.Sprintf("invalid FLAG %q", fields[1])}
		}
		if sam.Flags(flags)&sam.Unmapped != 0 {
			stats.Unmapped++
			continue
		}

		if len(fields) > 5 {
			if err := CheckCigar(string(fields[5])); err != nil {
				return nil, stats, &region.MalformedInputError{Line: lineNum, Message: err.Error()}
			}
		}

		var rec sam.Record
		if err := rec.UnmarshalSAM(header, line); err != nil {
			return nil, stats, &region.MalformedInputError{Line: lineNum, Message: err.Error()}
		}
		if rec.Ref == nil {
			stats.Unmapped++
			continue
		}
		if int(rec.MapQ) < minMapQ {
			stats.LowMapQ++
			continue
		}

		hits = append(hits, Hit{
			ReadID:   rec.Name,
			RefName:  rec.Ref.Name(),
			Pos:      rec.Pos,
			MapQ:     int(rec.MapQ),
			Cigar:    rec.Cigar.String(),
			Sequence: string(rec.Seq.Expand()),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, stats, fmt.Errorf("read SAM: %w", err)
	}
	stats.Mapped = len(hits)

	return hits, stats, nil
}

// parseHeader returns nil for headerless SAM, which makes sam.Record
// create references by name.
func parseHeader(text []byte) (*sam.Header, error) {
	if len(text) == 0 {
		return nil, nil
	}
	return sam.NewHeader(text, nil)
}
