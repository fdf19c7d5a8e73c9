package scan

import "github.com/hivseq/polyscan/internal/region"

// Homopolymer run defaults for the polyC search.
const (
	DefaultRunSymbol = 'C'
	DefaultRunLength = 5
)

// Runs returns the maximal runs of symbol in seq that are at least minLen
// long, as half-open windows whose Count is the run length.
func Runs(seq []byte, symbol byte, minLen int) []Window {
	if minLen <= 0 {
		minLen = 1
	}
	symbol = normalize(symbol)

	var runs []Window
	start := -1
	for i := 0; i <= len(seq); i++ {
		if i < len(seq) && normalize(seq[i]) == symbol {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if n := i - start; n >= minLen {
				runs = append(runs, Window{Start: start, End: i, Count: n})
			}
			start = -1
		}
	}
	return runs
}

// RunRegions returns the runs of Runs as annotated regions of sequence
// name.
func RunRegions(name string, seq []byte, symbol byte, minLen int) []region.Region {
	runs := Runs(seq, symbol, minLen)
	regions := make([]region.Region, len(runs))
	for i, w := range runs {
		regions[i] = region.Region{Name: name, Start: w.Start, End: w.End, Windows: 1}
	}
	Annotate(regions, seq, normalize(symbol))
	return regions
}
