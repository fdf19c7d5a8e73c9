// Package shift translates annotation coordinates by a fixed signed offset,
// correcting the known upstream offset of single-cell 3' capture reads.
package shift

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hivseq/polyscan/internal/region"
)

// DefaultOffset moves features 300 bp upstream.
const DefaultOffset = -300

// Policy decides what happens to records that fall outside the sequence
// after shifting.
type Policy string

const (
	// PolicyDrop removes out-of-bounds records and counts them as dropped.
	PolicyDrop Policy = "drop"
	// PolicyClamp moves out-of-bounds coordinates onto the nearest bound.
	PolicyClamp Policy = "clamp"
	// PolicyFail aborts on the first out-of-bounds record.
	PolicyFail Policy = "fail"
)

// ParsePolicy converts a policy name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyDrop, PolicyClamp, PolicyFail:
		return p, nil
	case "":
		return PolicyDrop, nil
	default:
		return "", fmt.Errorf("unknown shift policy %q (want drop, clamp or fail)", s)
	}
}

// Config holds the shift parameters.
type Config struct {
	Offset int    // added to start and end
	Bound  int    // sequence length; 0 disables the upper bound check
	Policy Policy // out-of-bounds handling
}

// DefaultConfig returns a -300 bp shift with the drop policy.
func DefaultConfig() Config {
	return Config{Offset: DefaultOffset, Policy: PolicyDrop}
}

// Result holds shifted records and the number of records affected by the
// out-of-bounds policy.
type Result struct {
	Records []region.Record
	Dropped int
	Clamped int
}

// Shifter applies a Config to record collections.
type Shifter struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a Shifter.
func New(cfg Config) (*Shifter, error) {
	if cfg.Policy == "" {
		cfg.Policy = PolicyDrop
	}
	if _, err := ParsePolicy(string(cfg.Policy)); err != nil {
		return nil, err
	}
	if cfg.Bound < 0 {
		return nil, fmt.Errorf("sequence bound must not be negative, got %d", cfg.Bound)
	}
	return &Shifter{cfg: cfg, logger: zap.NewNop()}, nil
}

// SetLogger sets the logger used to report dropped and clamped records.
func (s *Shifter) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Shift returns translated copies of recs. The input is never modified.
// Strand does not affect the direction of the shift.
func (s *Shifter) Shift(recs []region.Record) (Result, error) {
	res := Result{Records: make([]region.Record, 0, len(recs))}

	for _, rec := range recs {
		if rec.Start > rec.End {
			return res, &region.InvalidRangeError{
				SeqName: rec.SeqName, Start: rec.Start, End: rec.End,
				Reason: "start after end",
			}
		}

		out := rec.Clone()
		out.Start = rec.Start + s.cfg.Offset
		out.End = rec.End + s.cfg.Offset

		if s.inBounds(out) {
			res.Records = append(res.Records, out)
			continue
		}

		switch s.cfg.Policy {
		case PolicyDrop:
			res.Dropped++
			s.logger.Debug("dropped out-of-bounds record",
				zap.String("seqname", rec.SeqName),
				zap.Int("start", out.Start),
				zap.Int("end", out.End))
		case PolicyClamp:
			out.Start = s.clamp(out.Start)
			out.End = s.clamp(out.End)
			res.Clamped++
			res.Records = append(res.Records, out)
		case PolicyFail:
			return res, &region.InvalidRangeError{
				SeqName: rec.SeqName, Start: out.Start, End: out.End,
				Reason: fmt.Sprintf("outside sequence after shifting by %d", s.cfg.Offset),
			}
		}
	}

	if res.Dropped > 0 || res.Clamped > 0 {
		s.logger.Info("shift policy applied",
			zap.String("policy", string(s.cfg.Policy)),
			zap.Int("offset", s.cfg.Offset),
			zap.Int("dropped", res.Dropped),
			zap.Int("clamped", res.Clamped),
			zap.Int("kept", len(res.Records)))
	}

	return res, nil
}

func (s *Shifter) inBounds(r region.Record) bool {
	if r.Start < 0 {
		return false
	}
	return s.cfg.Bound == 0 || r.End <= s.cfg.Bound
}

func (s *Shifter) clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	if s.cfg.Bound > 0 && pos > s.cfg.Bound {
		return s.cfg.Bound
	}
	return pos
}
