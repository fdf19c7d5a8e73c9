package genome

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivseq/polyscan/internal/region"
)

const sampleFASTA = `>HXB2 HIV-1 reference fragment
TGGAAGGGCTAATTCACTCCCAAAGAAGACAAGATATCCTTGATCTGTGG
ATCTACCACACACAAGGCTACTTCCCTGATTAGCAGAACTACACACCAGG
>polyA test
AAAAAAAAAAAAAAAAAAAAGGGG
`

func TestReader_ReadAll(t *testing.T) {
	seqs, err := NewReader(strings.NewReader(sampleFASTA), "").ReadAll()
	require.NoError(t, err)
	require.Len(t, seqs, 2)

	assert.Equal(t, "HXB2", seqs[0].Name)
	assert.Equal(t, 100, seqs[0].Len())
	assert.True(t, bytes.HasPrefix(seqs[0].Bases, []byte("TGGAAGGGCTAATTCACTCC")))

	assert.Equal(t, "polyA", seqs[1].Name)
	assert.Equal(t, "AAAAAAAAAAAAAAAAAAAAGGGG", string(seqs[1].Bases))
}

func TestReader_AllStopsEarly(t *testing.T) {
	r := NewReader(strings.NewReader(sampleFASTA), "")
	n := 0
	for _, err := range r.All() {
		require.NoError(t, err)
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestReader_InvalidSymbol(t *testing.T) {
	_, err := NewReader(strings.NewReader(">bad\nACGTJACGT\n"), "bad.fa").ReadAll()
	var malformed *region.MalformedInputError
	require.True(t, errors.As(err, &malformed), "got %v", err)
	assert.Contains(t, malformed.Message, "position 5")
	assert.Equal(t, "bad.fa", malformed.Path)
}

func TestOpen_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.fa.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleFASTA))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	seqs, err := r.ReadAll()
	require.NoError(t, err)
	assert.Len(t, seqs, 2)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "none.fa"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Unwrap(err)))
}

func TestReverseComplement(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"A", "T"},
		{"ACGT", "ACGT"},
		{"AACG", "CGTT"},
		{"GATTACA", "TGTAATC"},
		{"ACGN", "NCGT"},
		{"AAAR", "YTTT"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ReverseComplement(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ReverseComplement("ACGZ")
	assert.Error(t, err)
}

func TestReverseComplement_Involution(t *testing.T) {
	for _, s := range []string{"TTTTTGCATCAGGAAC", "NNACGTRYKM", "GATTACA"} {
		once, err := ReverseComplement(s)
		require.NoError(t, err)
		twice, err := ReverseComplement(once)
		require.NoError(t, err)
		assert.Equal(t, s, twice)
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 60)
	require.NoError(t, w.Write(Sequence{Name: "AAACCCGGGTTTAAAC_ACGTACGTACGT", Bases: []byte("ACGTTTGCA")}))
	require.NoError(t, w.Write(Sequence{Name: "second", Bases: []byte("GGGG")}))

	seqs, err := NewReader(&buf, "").ReadAll()
	require.NoError(t, err)
	require.Len(t, seqs, 2)
	assert.Equal(t, "AAACCCGGGTTTAAAC_ACGTACGTACGT", seqs[0].Name)
	assert.Equal(t, "ACGTTTGCA", string(seqs[0].Bases))
	assert.Equal(t, "GGGG", string(seqs[1].Bases))
}
