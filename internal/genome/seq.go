package genome

import (
	"fmt"
	"io"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// ReverseComplement returns the reverse complement of a nucleotide string.
// IUPAC ambiguity codes are complemented; any other symbol is an error.
func ReverseComplement(s string) (string, error) {
	letters := make([]alphabet.Letter, len(s))
	for i := 0; i < len(s); i++ {
		l := alphabet.Letter(s[i])
		if !alphabet.DNAredundant.IsValid(l) {
			return "", fmt.Errorf("invalid nucleotide %q at position %d", s[i], i+1)
		}
		letters[i] = l
	}

	ls := linear.NewSeq("", letters, alphabet.DNAredundant)
	ls.RevComp()

	out := make([]byte, len(ls.Seq))
	for i, l := range ls.Seq {
		out[i] = byte(l)
	}
	return string(out), nil
}

// Writer writes sequences in FASTA format.
type Writer struct {
	fw *fasta.Writer
}

// NewWriter creates a FASTA writer wrapping lines at width bases.
func NewWriter(w io.Writer, width int) *Writer {
	return &Writer{fw: fasta.NewWriter(w, width)}
}

// Write writes a single record.
func (w *Writer) Write(s Sequence) error {
	ls := linear.NewSeq(s.Name, alphabet.BytesToLetters(s.Bases), alphabet.DNAredundant)
	ls.Desc = s.Description
	_, err := w.fw.Write(ls)
	return err
}
