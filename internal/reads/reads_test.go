package reads

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hivseq/polyscan/internal/region"
)

func fastqRecord(name, seq, qual string) string {
	return "@" + name + "\n" + seq + "\n+\n" + qual + "\n"
}

const (
	cell = "AAACCCAAGAAACACT"
	umi  = "GTCAGTACGTAC"
)

func TestExtract(t *testing.T) {
	input := fastqRecord("r1", cell+umi+"TTTTGGGACCA", strings.Repeat("?", 39)) +
		fastqRecord("r2", cell+umi+"AC", strings.Repeat("I", 20)+strings.Repeat("5", 10)) +
		fastqRecord("short", "ACGT", "IIII")

	var out bytes.Buffer
	stats, err := Extract(context.Background(), strings.NewReader(input), &out, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, Stats{Reads: 3, Written: 2, Skipped: 1, Chunks: 1}, stats)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "CellID,UMI,Sequence,Average_Quality", lines[0])
	assert.Equal(t, cell+","+umi+",TTTTGGGACCA,30.00", lines[1])
	// 20 bases at Q40 and 10 at Q20.
	assert.Equal(t, cell+","+umi+",AC,33.33", lines[2])
}

func TestExtract_ExactPrefixLength(t *testing.T) {
	input := fastqRecord("r1", cell+umi, strings.Repeat("I", 28))

	var out bytes.Buffer
	stats, err := Extract(context.Background(), strings.NewReader(input), &out, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Written)
	assert.Contains(t, out.String(), cell+","+umi+",,40.00")
}

func TestExtract_Chunks(t *testing.T) {
	var sb strings.Builder
	for range 5 {
		sb.WriteString(fastqRecord("r", cell+umi+"ACGT", strings.Repeat("I", 32)))
	}

	core, logs := observer.New(zapcore.InfoLevel)
	cfg := DefaultConfig()
	cfg.ChunkSize = 2
	cfg.Logger = zap.New(core)

	var out bytes.Buffer
	stats, err := Extract(context.Background(), strings.NewReader(sb.String()), &out, cfg)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Written)
	assert.Equal(t, 3, stats.Chunks)
	assert.Equal(t, 3, logs.FilterMessage("processed chunk").Len())
}

func TestExtract_Cancelled(t *testing.T) {
	var sb strings.Builder
	for range 4 {
		sb.WriteString(fastqRecord("r", cell+umi+"ACGT", strings.Repeat("I", 32)))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	cfg.ChunkSize = 1
	var out bytes.Buffer
	_, err := Extract(ctx, strings.NewReader(sb.String()), &out, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtract_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChunkSize = 0
	_, err := Extract(context.Background(), strings.NewReader(""), &bytes.Buffer{}, cfg)
	assert.Error(t, err)
}

func TestOpen_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r1.fastq.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(fastqRecord("r1", cell+umi+"GATTACA", strings.Repeat("I", 35))))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	rc, err := Open(path)
	require.NoError(t, err)
	defer rc.Close()

	var out bytes.Buffer
	stats, err := Extract(context.Background(), rc, &out, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Written)
	assert.Contains(t, out.String(), ",GATTACA,40.00")
}

func TestTrim(t *testing.T) {
	input := "CellID,UMI,Sequence,Average_Quality\n" +
		"C1,U1,TTTTGGGACCA,30.00\n" +
		"C2,U2,GGTTT,31.50\n" +
		"C3,U3,TTTT,20.00\n" +
		"C4,U4,,20.00\n"

	var out bytes.Buffer
	stats, err := Trim(context.Background(), strings.NewReader(input), &out, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Written)

	want := "CellID,UMI,Sequence,Average_Quality\n" +
		"C1,U1,GGGACCA,30.00\n" +
		"C2,U2,GGTTT,31.50\n" +
		"C3,U3,,20.00\n" +
		"C4,U4,,20.00\n"
	assert.Equal(t, want, out.String())
}

func TestTrim_CustomSymbol(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrimSymbol = 'A'

	var out bytes.Buffer
	_, err := Trim(context.Background(), strings.NewReader("Sequence,Extra\nAAACGA,x\n"), &out, cfg)
	require.NoError(t, err)
	assert.Equal(t, "Sequence,Extra\nCGA,x\n", out.String())
}

func TestTrim_MissingColumn(t *testing.T) {
	_, err := Trim(context.Background(), strings.NewReader("CellID,UMI\nA,B\n"), &bytes.Buffer{}, DefaultConfig())
	var malformed *region.MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 1, malformed.Line)
}

func TestTrim_RaggedRow(t *testing.T) {
	_, err := Trim(context.Background(), strings.NewReader("CellID,Sequence\nA,TTG\nB\n"), &bytes.Buffer{}, DefaultConfig())
	var malformed *region.MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 3, malformed.Line)
}

func TestColumnIndex(t *testing.T) {
	header := []string{"CellID", " Sequence ", "UMI"}
	assert.Equal(t, 1, ColumnIndex(header, "Sequence"))
	assert.Equal(t, -1, ColumnIndex(header, "missing"))
}
