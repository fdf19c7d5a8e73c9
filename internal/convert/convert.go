// Package convert maps regions to GTF annotation records and back, and
// drives the table/GTF conversion commands.
package convert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hivseq/polyscan/internal/region"
)

// DefaultSource is written to the GTF source column.
const DefaultSource = "polyscan"

// RegionIDKey is the attribute synthesized to identify each region.
const RegionIDKey = "region_id"

// SequenceKey holds the region sub-sequence.
const SequenceKey = "sequence"

var symbolNames = map[byte]string{
	'A': "adenine",
	'C': "cytosine",
	'G': "guanine",
	'T': "thymine",
}

// SymbolName returns the nucleotide name for a symbol, e.g. "adenine" for A.
func SymbolName(target byte) string {
	if name, ok := symbolNames[upper(target)]; ok {
		return name
	}
	return "nucleotide"
}

// FeatureName returns the GTF feature type for regions rich in target,
// e.g. "adenine_rich_region".
func FeatureName(target byte) string {
	return SymbolName(target) + "_rich_region"
}

// CountKey returns the attribute holding the target count, e.g.
// "adenine_count".
func CountKey(target byte) string {
	return SymbolName(target) + "_count"
}

// Options controls how regions are rendered as records.
type Options struct {
	Source  string // GTF source column
	Feature string // GTF feature column; derived from Target when empty
	Target  byte   // symbol the regions are enriched for
}

// DefaultOptions returns options for adenine-rich regions.
func DefaultOptions() Options {
	return Options{Source: DefaultSource, Target: 'A'}
}

func (o Options) feature() string {
	if o.Feature != "" {
		return o.Feature
	}
	return FeatureName(o.Target)
}

func (o Options) source() string {
	if o.Source != "" {
		return o.Source
	}
	return DefaultSource
}

// ToRecord converts the idx-th region (1-based) to an annotation record.
// Coordinates are kept 0-based half-open; the GTF writer performs the
// 1-based conversion.
func ToRecord(r region.Region, idx int, opts Options) region.Record {
	attrs := region.Attributes{{Key: RegionIDKey, Value: "region_" + strconv.Itoa(idx)}}
	if r.Sequence != "" {
		attrs = append(attrs, region.Attribute{Key: SequenceKey, Value: r.Sequence})
	}
	attrs = append(attrs, region.Attribute{Key: CountKey(opts.Target), Value: strconv.Itoa(r.Count)})

	return region.Record{
		SeqName:    r.Name,
		Source:     opts.source(),
		Feature:    opts.feature(),
		Start:      r.Start,
		End:        r.End,
		Score:      ".",
		Strand:     region.StrandUnknown,
		Frame:      ".",
		Attributes: attrs,
	}
}

// FromRecord converts an annotation record back to a region. The sequence
// comes from the "sequence" attribute and the count from the first
// attribute whose key ends in "_count".
func FromRecord(rec region.Record) (region.Region, error) {
	if rec.Start < 0 || rec.End <= rec.Start {
		return region.Region{}, &region.InvalidRangeError{
			SeqName: rec.SeqName, Start: rec.Start, End: rec.End,
			Reason: "region must satisfy 0 <= start < end",
		}
	}

	r := region.Region{Name: rec.SeqName, Start: rec.Start, End: rec.End}
	if seq, ok := rec.Attributes.Get(SequenceKey); ok {
		r.Sequence = seq
	}
	for _, a := range rec.Attributes {
		if !strings.HasSuffix(a.Key, "_count") {
			continue
		}
		n, err := strconv.Atoi(a.Value)
		if err != nil {
			return region.Region{}, fmt.Errorf("attribute %s: invalid count %q", a.Key, a.Value)
		}
		r.Count = n
		break
	}
	return r, nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
