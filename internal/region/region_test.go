package region

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegion_String(t *testing.T) {
	r := Region{Name: "HXB2", Start: 0, End: 20}
	assert.Equal(t, "HXB2:1-20", r.String())
	assert.Equal(t, 20, r.Len())
}

func TestRegion_Overlaps(t *testing.T) {
	a := Region{Name: "s", Start: 0, End: 10}
	assert.True(t, a.Overlaps(Region{Name: "s", Start: 9, End: 12}))
	assert.False(t, a.Overlaps(Region{Name: "s", Start: 10, End: 12}), "half-open intervals touching at 10 do not overlap")
	assert.False(t, a.Overlaps(Region{Name: "other", Start: 0, End: 10}))
}

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"ok", Record{SeqName: "s", Start: 10, End: 20, Strand: "+"}, false},
		{"empty span allowed", Record{SeqName: "s", Start: 0, End: 0, Strand: "."}, false},
		{"start after end", Record{SeqName: "s", Start: 30, End: 20, Strand: "+"}, true},
		{"negative start", Record{SeqName: "s", Start: -1, End: 20, Strand: "-"}, true},
		{"bad strand", Record{SeqName: "s", Start: 1, End: 2, Strand: "?"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	err := Record{SeqName: "s", Start: 30, End: 20, Strand: "+"}.Validate()
	var rangeErr *InvalidRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, "s", rangeErr.SeqName)
}

func TestAttributes_OrderPreserved(t *testing.T) {
	var a Attributes
	a = a.Set("region_id", "region_1")
	a = a.Set("sequence", "AAAA")
	a = a.Set("region_id", "region_2")

	require.Len(t, a, 2)
	assert.Equal(t, "region_id", a[0].Key)
	assert.Equal(t, "region_2", a[0].Value)
	v, ok := a.Get("sequence")
	assert.True(t, ok)
	assert.Equal(t, "AAAA", v)
	_, ok = a.Get("missing")
	assert.False(t, ok)
}

func TestRecord_CloneIsIndependent(t *testing.T) {
	r := Record{SeqName: "s", Attributes: Attributes{{Key: "k", Value: "v"}}}
	c := r.Clone()
	c.Attributes.Set("k", "changed")
	v, _ := r.Attributes.Get("k")
	assert.Equal(t, "v", v)
}

func TestErrorMessages(t *testing.T) {
	err := &MalformedInputError{Path: "in.gtf", Line: 3, Message: "expected 9 fields, got 4"}
	assert.Equal(t, "malformed input in.gtf:3: expected 9 fields, got 4", err.Error())

	err = &MalformedInputError{Line: 7, Message: "bad start"}
	assert.Contains(t, err.Error(), "line 7")
}
