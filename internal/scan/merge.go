package scan

import (
	"cmp"
	"slices"
	"strings"

	"github.com/hivseq/polyscan/internal/region"
)

// Merge coalesces windows into regions. Windows are sorted by start first,
// so any input order is accepted. Two windows merge when the next one starts
// at or before the end of the current region; touching spans merge so that
// window boundaries never leave single-base gaps. The result is sorted by
// start and pairwise non-overlapping.
func Merge(name string, windows []Window) []region.Region {
	if len(windows) == 0 {
		return nil
	}

	sorted := slices.Clone(windows)
	slices.SortStableFunc(sorted, func(a, b Window) int {
		return cmp.Compare(a.Start, b.Start)
	})

	var regions []region.Region
	cur := region.Region{Name: name, Start: sorted[0].Start, End: sorted[0].End, Windows: 1}
	for _, w := range sorted[1:] {
		if w.Start <= cur.End {
			cur.End = max(cur.End, w.End)
			cur.Windows++
			continue
		}
		regions = append(regions, cur)
		cur = region.Region{Name: name, Start: w.Start, End: w.End, Windows: 1}
	}
	return append(regions, cur)
}

// Trim narrows each region to the span between its first and last target
// symbol, dropping flanking bases that only entered through the window
// width. Regions without any target symbol are left untouched.
func Trim(regions []region.Region, seq []byte, target byte) {
	target = normalize(target)
	for i := range regions {
		r := &regions[i]
		if r.Start < 0 || r.End > len(seq) || r.Start >= r.End {
			continue
		}
		lo, hi := r.Start, r.End
		for lo < hi && normalize(seq[lo]) != target {
			lo++
		}
		for hi > lo && normalize(seq[hi-1]) != target {
			hi--
		}
		if lo < hi {
			r.Start, r.End = lo, hi
		}
	}
}

// Annotate fills Sequence and Count of each region from seq. Regions that
// extend past the end of seq are left untouched.
func Annotate(regions []region.Region, seq []byte, target byte) {
	for i := range regions {
		r := &regions[i]
		if r.Start < 0 || r.End > len(seq) || r.Start >= r.End {
			continue
		}
		span := seq[r.Start:r.End]
		r.Sequence = strings.ToUpper(string(span))
		r.Count = Count(span, target)
	}
}
