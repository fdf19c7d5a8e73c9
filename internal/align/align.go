// Package align maps trimmed single-cell reads onto a reference with an
// external short-read aligner.
package align

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Defaults for alignment runs.
const (
	DefaultChunkSize = 100000
	DefaultMinMapQ   = 20
	DefaultWorkers   = 1
	DefaultBinary    = "bowtie2"
)

// Read is one row of the trimmed read table.
type Read struct {
	CellID   string
	UMI      string
	Sequence string
}

// ID returns the FASTA identifier used for the read.
func (r Read) ID() string {
	return r.CellID + "_" + r.UMI
}

// Hit is a retained alignment. Pos is 0-based.
type Hit struct {
	ReadID   string
	RefName  string
	Pos      int
	MapQ     int
	Cigar    string
	Sequence string
}

// Stats counts alignment outcomes.
type Stats struct {
	Total    int // SAM records parsed
	Unmapped int
	LowMapQ  int
	Mapped   int // hits retained
	Blank    int // reads dropped before alignment for an empty sequence
	Invalid  int // reads dropped for non-nucleotide symbols
	Chunks   int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Total += o.Total
	s.Unmapped += o.Unmapped
	s.LowMapQ += o.LowMapQ
	s.Mapped += o.Mapped
	s.Blank += o.Blank
	s.Invalid += o.Invalid
	s.Chunks += o.Chunks
}

// Aligner aligns the reads in a FASTA file and writes SAM to samPath.
type Aligner interface {
	Align(ctx context.Context, fastaPath, samPath string) error
}

// Bowtie2 runs the bowtie2 binary in local, very-sensitive mode.
type Bowtie2 struct {
	Binary    string // defaults to "bowtie2" on PATH
	Index     string // index basename passed to -x
	Threads   int    // -p, omitted when < 2
	ExtraArgs []string
}

// Args returns the command-line arguments for one run.
func (b *Bowtie2) Args(fastaPath, samPath string) []string {
	args := []string{
		"-x", b.Index,
		"-f",
		"-U", fastaPath,
		"-S", samPath,
		"--local",
		"--very-sensitive-local",
	}
	if b.Threads > 1 {
		args = append(args, "-p", strconv.Itoa(b.Threads))
	}
	return append(args, b.ExtraArgs...)
}

// Align implements Aligner.
func (b *Bowtie2) Align(ctx context.Context, fastaPath, samPath string) error {
	if b.Index == "" {
		return fmt.Errorf("bowtie2: no index configured")
	}
	bin := b.Binary
	if bin == "" {
		bin = DefaultBinary
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, b.Args(fastaPath, samPath)...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%s: %w", bin, err)
		}
		return fmt.Errorf("%s: %w: %s", bin, err, msg)
	}
	return nil
}
