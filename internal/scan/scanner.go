// Package scan finds regions of a reference sequence enriched for a single
// nucleotide using a fixed-size sliding window.
package scan

import (
	"fmt"
	"iter"

	"github.com/hivseq/polyscan/internal/region"
)

// Defaults for the polyA scan: 10 or more A in any 20 bp window.
const (
	DefaultWindowSize = 20
	DefaultThreshold  = 10
	DefaultTarget     = 'A'
)

// Config holds sliding window parameters.
type Config struct {
	WindowSize int  // W
	Threshold  int  // minimum target count T
	Target     byte // nucleotide to count, upper case
}

// DefaultConfig returns the polyA defaults (W=20, T=10, A).
func DefaultConfig() Config {
	return Config{
		WindowSize: DefaultWindowSize,
		Threshold:  DefaultThreshold,
		Target:     DefaultTarget,
	}
}

// Validate checks that the window parameters are usable.
func (c Config) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("window size must be positive, got %d", c.WindowSize)
	}
	if c.Threshold < 0 || c.Threshold > c.WindowSize {
		return fmt.Errorf("threshold must be in [0, %d], got %d", c.WindowSize, c.Threshold)
	}
	switch normalize(c.Target) {
	case 'A', 'C', 'G', 'T':
	default:
		return fmt.Errorf("target must be one of A, C, G, T, got %q", c.Target)
	}
	return nil
}

// Window is a half-open interval [Start, End) over a sequence together with
// the number of target symbols it contains.
type Window struct {
	Start int
	End   int
	Count int
}

// Scanner produces qualifying windows for a configured target symbol.
type Scanner struct {
	cfg    Config
	target byte
}

// NewScanner creates a scanner after validating cfg.
func NewScanner(cfg Config) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scanner{cfg: cfg, target: normalize(cfg.Target)}, nil
}

// Config returns the scanner configuration.
func (s *Scanner) Config() Config {
	return s.cfg
}

// Windows yields every window of the configured size whose target count is
// at least the threshold, in ascending start order. The count is maintained
// incrementally so a full scan is O(len(seq)). Sequences shorter than the
// window yield nothing.
func (s *Scanner) Windows(seq []byte) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		w := s.cfg.WindowSize
		if len(seq) < w {
			return
		}

		count := 0
		for i := 0; i < w; i++ {
			if normalize(seq[i]) == s.target {
				count++
			}
		}

		for start := 0; ; start++ {
			if count >= s.cfg.Threshold {
				if !yield(Window{Start: start, End: start + w, Count: count}) {
					return
				}
			}
			next := start + w
			if next >= len(seq) {
				return
			}
			if normalize(seq[start]) == s.target {
				count--
			}
			if normalize(seq[next]) == s.target {
				count++
			}
		}
	}
}

// Regions scans seq, merges the qualifying windows, trims each region to its
// outermost target symbols and annotates it with its sub-sequence and target
// count.
func (s *Scanner) Regions(name string, seq []byte) []region.Region {
	var windows []Window
	for w := range s.Windows(seq) {
		windows = append(windows, w)
	}
	regions := Merge(name, windows)
	Trim(regions, seq, s.target)
	Annotate(regions, seq, s.target)
	return regions
}

// Count returns the number of positions in seq equal to target after
// normalization.
func Count(seq []byte, target byte) int {
	target = normalize(target)
	n := 0
	for _, b := range seq {
		if normalize(b) == target {
			n++
		}
	}
	return n
}

// normalize upper-cases a nucleotide and maps RNA uracil to thymine.
// Ambiguity codes pass through unchanged and never match a target.
func normalize(b byte) byte {
	if b >= 'a' && b <= 'z' {
		b -= 'a' - 'A'
	}
	if b == 'U' {
		return 'T'
	}
	return b
}
