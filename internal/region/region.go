// Package region defines the genomic interval and annotation record types
// shared by the scanning, shifting and conversion stages.
package region

import "fmt"

// Region is a half-open genomic interval [Start, End) derived from one or
// more merged windows.
type Region struct {
	Name     string // source sequence name
	Start    int    // 0-based, inclusive
	End      int    // 0-based, exclusive
	Sequence string // representative sub-sequence (optional)
	Count    int    // number of target symbols within [Start, End)
	Windows  int    // number of windows merged into this region
}

// Len returns the number of bases covered by the region.
func (r Region) Len() int {
	return r.End - r.Start
}

// Overlaps reports whether r and o share at least one base.
func (r Region) Overlaps(o Region) bool {
	return r.Name == o.Name && r.Start < o.End && o.Start < r.End
}

// String formats the region as name:start-end using 1-based inclusive
// coordinates, the way genome browsers display locations.
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Name, r.Start+1, r.End)
}

// Strand values allowed on a Record.
const (
	StrandForward = "+"
	StrandReverse = "-"
	StrandUnknown = "."
)

// Record mirrors a single GTF line. Start and End are held 0-based
// half-open in memory; the GTF codec converts to 1-based inclusive.
type Record struct {
	SeqName    string
	Source     string
	Feature    string
	Start      int
	End        int
	Score      string
	Strand     string
	Frame      string
	Attributes Attributes
}

// Len returns the number of bases covered by the record.
func (r Record) Len() int {
	return r.End - r.Start
}

// Validate checks the record invariants: Start <= End, Start >= 0 and a
// known strand symbol.
func (r Record) Validate() error {
	if r.Start > r.End {
		return &InvalidRangeError{SeqName: r.SeqName, Start: r.Start, End: r.End, Reason: "start after end"}
	}
	if r.Start < 0 {
		return &InvalidRangeError{SeqName: r.SeqName, Start: r.Start, End: r.End, Reason: "negative start"}
	}
	switch r.Strand {
	case StrandForward, StrandReverse, StrandUnknown:
	default:
		return fmt.Errorf("invalid strand %q for %s", r.Strand, r.SeqName)
	}
	return nil
}

// Clone returns a copy of r whose attributes can be modified without
// affecting r.
func (r Record) Clone() Record {
	c := r
	c.Attributes = r.Attributes.Clone()
	return c
}

// Attribute is a single GTF attribute key/value pair.
type Attribute struct {
	Key   string
	Value string
}

// Attributes is an order-preserving list of GTF attributes.
type Attributes []Attribute

// Get returns the value of the first attribute named key.
func (a Attributes) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// Set replaces the value of the first attribute named key, or appends a
// new attribute if key is absent.
func (a Attributes) Set(key, value string) Attributes {
	for i := range a {
		if a[i].Key == key {
			a[i].Value = value
			return a
		}
	}
	return append(a, Attribute{Key: key, Value: value})
}

// Clone returns an independent copy of a.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	c := make(Attributes, len(a))
	copy(c, a)
	return c
}
