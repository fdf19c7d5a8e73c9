package shift

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hivseq/polyscan/internal/region"
)

func rec(start, end int) region.Record {
	return region.Record{
		SeqName: "HXB2", Source: "polyscan", Feature: "adenine_rich_region",
		Start: start, End: end, Score: ".", Strand: ".", Frame: ".",
		Attributes: region.Attributes{{Key: "region_id", Value: "region_1"}},
	}
}

func newShifter(t *testing.T, cfg Config) *Shifter {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func TestShift_DropPolicyIsDefault(t *testing.T) {
	s := newShifter(t, DefaultConfig())

	res, err := s.Shift([]region.Record{rec(100, 150), rec(1000, 1050)})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, 0, res.Clamped)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 700, res.Records[0].Start)
	assert.Equal(t, 750, res.Records[0].End)
}

func TestShift_ClampPolicy(t *testing.T) {
	s := newShifter(t, Config{Offset: -300, Policy: PolicyClamp})

	res, err := s.Shift([]region.Record{rec(100, 150)})
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, 0, res.Records[0].Start)
	assert.Equal(t, 0, res.Records[0].End)
	assert.Equal(t, 1, res.Clamped)
}

func TestShift_ClampToUpperBound(t *testing.T) {
	s := newShifter(t, Config{Offset: 300, Bound: 9719, Policy: PolicyClamp})

	res, err := s.Shift([]region.Record{rec(9500, 9600)})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 9719, res.Records[0].Start)
	assert.Equal(t, 9719, res.Records[0].End)
}

func TestShift_BoundDrop(t *testing.T) {
	s := newShifter(t, Config{Offset: 300, Bound: 1000})

	res, err := s.Shift([]region.Record{rec(600, 700), rec(650, 710)})
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, 1, res.Dropped)
}

func TestShift_FailPolicy(t *testing.T) {
	s := newShifter(t, Config{Offset: -300, Policy: PolicyFail})

	_, err := s.Shift([]region.Record{rec(400, 450), rec(100, 150)})
	var rangeErr *region.InvalidRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, -200, rangeErr.Start)
}

func TestShift_StartAfterEnd(t *testing.T) {
	s := newShifter(t, DefaultConfig())

	_, err := s.Shift([]region.Record{rec(500, 400)})
	var rangeErr *region.InvalidRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, "start after end", rangeErr.Reason)
}

func TestShift_StrandDoesNotChangeDirection(t *testing.T) {
	s := newShifter(t, DefaultConfig())

	fwd, rev := rec(1000, 1100), rec(1000, 1100)
	fwd.Strand, rev.Strand = "+", "-"

	res, err := s.Shift([]region.Record{fwd, rev})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, res.Records[0].Start, res.Records[1].Start)
	assert.Equal(t, res.Records[0].End, res.Records[1].End)
}

func TestShift_InputNotModified(t *testing.T) {
	s := newShifter(t, DefaultConfig())

	in := []region.Record{rec(1000, 1100)}
	res, err := s.Shift(in)
	require.NoError(t, err)

	res.Records[0].Attributes.Set("region_id", "changed")
	assert.Equal(t, 1000, in[0].Start)
	v, _ := in[0].Attributes.Get("region_id")
	assert.Equal(t, "region_1", v)
}

func TestShift_InverseRestoresOriginal(t *testing.T) {
	in := []region.Record{rec(0, 10), rec(300, 320), rec(450, 700), rec(5000, 5100)}
	for _, offset := range []int{-300, -1, 0, 1, 250} {
		fwd := newShifter(t, Config{Offset: offset})
		back := newShifter(t, Config{Offset: -offset})

		shifted, err := fwd.Shift(in)
		require.NoError(t, err)
		restored, err := back.Shift(shifted.Records)
		require.NoError(t, err)
		require.Zero(t, restored.Dropped)

		// Compare against the input records that survived the first shift.
		var kept []region.Record
		for _, r := range in {
			if r.Start+offset >= 0 {
				kept = append(kept, r)
			}
		}
		assert.Equal(t, kept, restored.Records, "offset %d", offset)
	}
}

func TestShift_LogsPolicyCounts(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := newShifter(t, DefaultConfig())
	s.SetLogger(zap.New(core))

	_, err := s.Shift([]region.Record{rec(10, 20), rec(20, 30)})
	require.NoError(t, err)

	entries := logs.FilterMessage("shift policy applied").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 2, entries[0].ContextMap()["dropped"])
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyDrop, p)

	p, err = ParsePolicy("clamp")
	require.NoError(t, err)
	assert.Equal(t, PolicyClamp, p)

	_, err = ParsePolicy("wrap")
	assert.Error(t, err)

	_, err = New(Config{Policy: "wrap"})
	assert.Error(t, err)
}
