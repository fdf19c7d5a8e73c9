package coverage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivseq/polyscan/internal/align"
	"github.com/hivseq/polyscan/internal/region"
)

func TestDepth(t *testing.T) {
	hits := []align.Hit{
		{ReadID: "a", Pos: 1, Cigar: "3M"},        // positions 2-4
		{ReadID: "b", Pos: 3, Cigar: "2S2M1I1M"},  // 4-6
		{ReadID: "c", Pos: 5, Cigar: "1=2D1X"},    // 6-7, deletions not counted
		{ReadID: "d", Pos: 8, Cigar: "5M"},        // 9-13, clipped at 10
		{ReadID: "e", Pos: 20, Cigar: "5M"},       // outside
		{ReadID: "f", Pos: 0, Cigar: "*"},         // no span
	}

	depth, err := Depth(hits, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1, 2, 1, 2, 1, 0, 1, 1}, depth)
}

func TestDepth_WindowOffset(t *testing.T) {
	depth, err := Depth([]align.Hit{{Pos: 0, Cigar: "10M"}}, 5, 8)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1}, depth)
}

func TestDepth_Errors(t *testing.T) {
	_, err := Depth(nil, 0, 10)
	assert.Error(t, err)
	_, err = Depth(nil, 10, 9)
	assert.Error(t, err)

	_, err = Depth([]align.Hit{{ReadID: "x", Cigar: "10Q"}}, 1, 10)
	var malformed *region.MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Contains(t, malformed.Message, "x")
}

func TestDepth_TrailingLengthIsMalformed(t *testing.T) {
	var err error
	assert.NotPanics(t, func() {
		_, err = Depth([]align.Hit{{ReadID: "r1", Cigar: "10M5"}}, 1, 100)
	})
	var malformed *region.MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Contains(t, malformed.Message, "r1")
}

func TestAlignedLength(t *testing.T) {
	tests := []struct {
		cigar   string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"*", 0, false},
		{"100M", 100, false},
		{"5S20M2I3=1X4H", 24, false},
		{"10M500N10M", 20, false},
		{"10", 0, true},
		{"10M5", 0, true},
		{"1234567890M", 0, true},
		{"10B", 0, true},
		{"M", 0, true},
		{"4Z", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.cigar, func(t *testing.T) {
			got, err := AlignedLength(tt.cigar)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMax(t *testing.T) {
	v, pos := Max([]int{0, 3, 5, 5, 1}, 100)
	assert.Equal(t, 5, v)
	assert.Equal(t, 102, pos)

	v, pos = Max(nil, 1)
	assert.Zero(t, v)
	assert.Zero(t, pos)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, []int{0, 2, 1}, 10))
	assert.Equal(t, "position\tdepth\n10\t0\n11\t2\n12\t1\n", buf.String())
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alignment_coverage.png")
	depth := make([]int, 500)
	for i := range depth {
		depth[i] = i % 37
	}
	require.NoError(t, SavePNG(path, depth, 1))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG")))

	assert.Error(t, SavePNG(path, nil, 1))
}

func TestPreview(t *testing.T) {
	depth := make([]int, 1000)
	depth[500] = 9

	out := Preview(depth, 50, 5)
	assert.NotEmpty(t, out)
	assert.Contains(t, out, "20 per column")
	assert.Contains(t, out, "9")

	assert.Empty(t, Preview(nil, 50, 5))
}

func TestDownsample(t *testing.T) {
	assert.Equal(t, []float64{3, 7, 1}, downsample([]int{1, 3, 7, 2, 1}, 3))
	assert.Len(t, downsample(make([]int, 10), 20), 10)
	assert.True(t, strings.Contains(Preview([]int{1, 2, 3}, 10, 2), "1 per column"))
}
