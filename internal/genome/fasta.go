// Package genome loads reference sequences from FASTA files.
package genome

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/klauspost/pgzip"

	"github.com/hivseq/polyscan/internal/region"
)

// Sequence is a named nucleotide sequence. Bases must not be modified.
type Sequence struct {
	Name        string
	Description string
	Bases       []byte
}

// Len returns the number of bases.
func (s Sequence) Len() int {
	return len(s.Bases)
}

// Reader reads FASTA records one at a time.
type Reader struct {
	fr      *fasta.Reader
	path    string
	record  int
	closers []io.Closer
}

// NewReader creates a FASTA reader over r. path is only used in error
// messages.
func NewReader(r io.Reader, path string) *Reader {
	return &Reader{
		fr:   fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNAredundant)),
		path: path,
	}
}

// Open opens a FASTA file, decompressing it when the name ends in .gz.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}

	var reader io.Reader = f
	closers := []io.Closer{f}

	// Handle gzipped files
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		reader = gz
		closers = append([]io.Closer{gz}, closers...)
	}

	r := NewReader(reader, path)
	r.closers = closers
	return r, nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// Next reads the next record.
// Returns io.EOF when there are no more records.
func (r *Reader) Next() (Sequence, error) {
	s, err := r.fr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Sequence{}, io.EOF
		}
		return Sequence{}, &region.MalformedInputError{Path: r.path, Message: err.Error()}
	}
	r.record++

	ls, ok := s.(*linear.Seq)
	if !ok {
		return Sequence{}, fmt.Errorf("unexpected sequence type %T", s)
	}

	bases := make([]byte, len(ls.Seq))
	for i, l := range ls.Seq {
		if !alphabet.DNAredundant.IsValid(l) {
			return Sequence{}, &region.MalformedInputError{
				Path:    r.path,
				Message: fmt.Sprintf("record %d (%s): invalid nucleotide %q at position %d", r.record, ls.ID, byte(l), i+1),
			}
		}
		bases[i] = byte(l)
	}

	return Sequence{Name: ls.ID, Description: ls.Desc, Bases: bases}, nil
}

// All yields every remaining record. Iteration stops after the first
// error, which is yielded with a zero Sequence.
func (r *Reader) All() iter.Seq2[Sequence, error] {
	return func(yield func(Sequence, error) bool) {
		for {
			s, err := r.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Sequence{}, err)
				return
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

// ReadAll reads every remaining record into memory.
func (r *Reader) ReadAll() ([]Sequence, error) {
	var seqs []Sequence
	for s, err := range r.All() {
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, s)
	}
	return seqs, nil
}
