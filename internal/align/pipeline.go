package align

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hivseq/polyscan/internal/genome"
	"github.com/hivseq/polyscan/internal/region"
)

const fastaWidth = 80

// Config holds alignment parameters.
type Config struct {
	ChunkSize int
	MinMapQ   int
	Workers   int
	TempDir   string // "" uses the OS temp directory
}

// DefaultConfig returns the standard alignment configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize: DefaultChunkSize,
		MinMapQ:   DefaultMinMapQ,
		Workers:   DefaultWorkers,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be positive (got %d)", c.ChunkSize)
	}
	if c.MinMapQ < 0 || c.MinMapQ > 255 {
		return fmt.Errorf("minimum MAPQ must be within 0..255 (got %d)", c.MinMapQ)
	}
	return nil
}

// Pipeline aligns a trimmed read table chunk by chunk.
type Pipeline struct {
	aligner Aligner
	cfg     Config
	logger  *zap.Logger
}

// New creates a pipeline using the given aligner.
func New(aligner Aligner, cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		aligner: aligner,
		cfg:     cfg,
		logger:  zap.NewNop(),
	}, nil
}

// SetLogger sets the logger for progress and warnings.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Run reads the table from in, aligns it in chunks and calls emit with
// each chunk's hits in input order. An aligner failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, in io.Reader, emit func([]Hit) error) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make(chan workItem)
	var readErr error
	go func() {
		defer close(items)
		seq := 0
		for chunk, err := range ReadChunks(in, p.cfg.ChunkSize) {
			if err != nil {
				readErr = err
				return
			}
			select {
			case items <- workItem{Seq: seq, Reads: chunk}:
				seq++
			case <-ctx.Done():
				return
			}
		}
	}()

	var total Stats
	results := p.parallelAlign(ctx, items, p.cfg.Workers)
	err := orderedCollect(results, func(r workResult) error {
		if r.Err != nil {
			// Stop the producer and idle workers before the drain.
			cancel()
			return fmt.Errorf("chunk %d: %w", r.Seq+1, r.Err)
		}
		total.Add(r.Stats)
		p.logger.Info("aligned chunk",
			zap.Int("chunk", r.Seq+1),
			zap.Int("records", r.Stats.Total),
			zap.Int("mapped", r.Stats.Mapped))
		if err := emit(r.Hits); err != nil {
			cancel()
			return err
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	// items is closed before results, so readErr is settled here.
	if readErr != nil {
		return total, readErr
	}
	if err := ctx.Err(); err != nil {
		return total, err
	}

	if total.Blank > 0 || total.Invalid > 0 {
		p.logger.Warn("dropped reads before alignment",
			zap.Int("blank", total.Blank),
			zap.Int("invalid", total.Invalid))
	}
	return total, nil
}

// alignChunk writes a chunk as reverse-complemented FASTA, aligns it and
// parses the result. Temporary files are removed on return.
func (p *Pipeline) alignChunk(ctx context.Context, reads []Read) ([]Hit, Stats, error) {
	stats := Stats{Chunks: 1}

	fa, err := os.CreateTemp(p.cfg.TempDir, "polyscan-chunk-*.fa")
	if err != nil {
		return nil, stats, fmt.Errorf("create temp FASTA: %w", err)
	}
	faPath := fa.Name()
	samPath := strings.TrimSuffix(faPath, filepath.Ext(faPath)) + ".sam"
	defer os.Remove(faPath)
	defer os.Remove(samPath)

	w := genome.NewWriter(fa, fastaWidth)
	written := 0
	for _, rd := range reads {
		s := strings.TrimSpace(rd.Sequence)
		if s == "" {
			stats.Blank++
			continue
		}
		rc, err := genome.ReverseComplement(s)
		if err != nil {
			stats.Invalid++
			p.logger.Debug("skipping read", zap.String("read", rd.ID()), zap.Error(err))
			continue
		}
		if err := w.Write(genome.Sequence{Name: rd.ID(), Bases: []byte(rc)}); err != nil {
			fa.Close()
			return nil, stats, fmt.Errorf("write temp FASTA: %w", err)
		}
		written++
	}
	if err := fa.Close(); err != nil {
		return nil, stats, fmt.Errorf("close temp FASTA: %w", err)
	}
	if written == 0 {
		return nil, stats, nil
	}

	if err := p.aligner.Align(ctx, faPath, samPath); err != nil {
		return nil, stats, err
	}

	f, err := os.Open(samPath)
	if err != nil {
		return nil, stats, fmt.Errorf("open SAM output: %w", err)
	}
	defer f.Close()

	hits, samStats, err := ParseSAM(f, p.cfg.MinMapQ)
	if err != nil {
		var malformed *region.MalformedInputError
		if errors.As(err, &malformed) {
			malformed.Path = samPath
		}
		return nil, stats, err
	}
	samStats.Blank, samStats.Invalid, samStats.Chunks = stats.Blank, stats.Invalid, stats.Chunks
	return hits, samStats, nil
}

// ReadChunks yields the rows of a read table in chunks of size rows. The
// table needs CellID, UMI and Sequence columns; others are ignored.
func ReadChunks(in io.Reader, size int) iter.Seq2[[]Read, error] {
	return func(yield func([]Read, error) bool) {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1

		header, err := r.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(nil, csvError(err))
			return
		}
		cols, err := readColumns(header)
		if err != nil {
			yield(nil, err)
			return
		}

		chunk := make([]Read, 0, size)
		for {
			rec, err := r.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield(nil, csvError(err))
				return
			}
			chunk = append(chunk, Read{
				CellID:   field(rec, cols[0]),
				UMI:      field(rec, cols[1]),
				Sequence: field(rec, cols[2]),
			})
			if len(chunk) == size {
				if !yield(chunk, nil) {
					return
				}
				chunk = make([]Read, 0, size)
			}
		}
		if len(chunk) > 0 {
			yield(chunk, nil)
		}
	}
}

func readColumns(header []string) ([3]int, error) {
	var cols [3]int
	for i, name := range []string{"CellID", "UMI", "Sequence"} {
		cols[i] = -1
		for j, h := range header {
			if strings.TrimSpace(h) == name {
				cols[i] = j
				break
			}
		}
		if cols[i] < 0 {
			return cols, &region.MalformedInputError{Line: 1, Message: fmt.Sprintf("no %s column in header", name)}
		}
	}
	return cols, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &region.MalformedInputError{Line: pe.Line, Message: pe.Err.Error()}
	}
	return fmt.Errorf("read CSV: %w", err)
}
