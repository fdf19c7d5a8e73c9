package tabular

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivseq/polyscan/internal/region"
)

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in   string
		want rune
		err  bool
	}{
		{"", '\t', false},
		{"tab", '\t', false},
		{"TAB", '\t', false},
		{",", ',', false},
		{"comma", ',', false},
		{";", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDelimiter(tt.in)
		if tt.err {
			assert.Error(t, err, "ParseDelimiter(%q)", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "ParseDelimiter(%q)", tt.in)
	}
}

func TestReader_WithHeader(t *testing.T) {
	content := "Chromosome\tStart\tEnd\tSequence\tAdenine Count\n" +
		"HXB2\t10\t30\tAAAAAAAAAAAGAAAAAAAA\t19\n" +
		"# trailing comment\n" +
		"HXB2\t100\t120\n"

	regions, err := NewReader(strings.NewReader(content), "regions.tsv", '\t').ReadAll()
	require.NoError(t, err)
	require.Len(t, regions, 2)

	assert.Equal(t, region.Region{Name: "HXB2", Start: 10, End: 30, Sequence: "AAAAAAAAAAAGAAAAAAAA", Count: 19}, regions[0])
	assert.Equal(t, region.Region{Name: "HXB2", Start: 100, End: 120}, regions[1])
}

func TestReader_CommaWithoutHeader(t *testing.T) {
	content := "seq1,10,20\nseq1,40,60,AAAA,4\n"

	regions, err := NewReader(strings.NewReader(content), "", ',').ReadAll()
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, 10, regions[0].Start)
	assert.Equal(t, 4, regions[1].Count)
}

func TestReader_Malformed(t *testing.T) {
	cases := map[string]string{
		"too few columns": "seq1\t10\t20\nseq1\t30\n",
		"bad end":         "seq1\t10\t20\nseq1\t30\tabc\n",
		"bad count":       "seq1\t10\t20\nseq1\t30\t40\tAAA\tx\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(content), "bad.tsv", '\t').ReadAll()
			var malformed *region.MalformedInputError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Equal(t, 2, malformed.Line)
		})
	}
}

func TestReader_InvalidRange(t *testing.T) {
	_, err := NewReader(strings.NewReader("seq1\t20\t10\n"), "", '\t').ReadAll()
	var rangeErr *region.InvalidRangeError
	assert.True(t, errors.As(err, &rangeErr))
}

func TestWriter_RoundTrip(t *testing.T) {
	regions := []region.Region{
		{Name: "HXB2", Start: 0, End: 20, Sequence: "AAAAAAAAAAAAAAAAAAAA", Count: 20},
		{Name: "HXB2", Start: 45, End: 70, Sequence: "AAAAAGAAAAAAAAGAAAAAAAAAA", Count: 23},
	}

	for _, delim := range []rune{'\t', ','} {
		var buf bytes.Buffer
		w := NewWriter(&buf, delim)
		require.NoError(t, w.WriteHeader())
		for _, r := range regions {
			require.NoError(t, w.Write(r))
		}
		require.NoError(t, w.Flush())

		assert.True(t, strings.HasPrefix(buf.String(), "Chromosome"))

		got, err := NewReader(&buf, "", delim).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, regions, got, "delimiter %q", delim)
	}
}
