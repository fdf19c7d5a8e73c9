package convert

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/hivseq/polyscan/internal/gtf"
	"github.com/hivseq/polyscan/internal/region"
	"github.com/hivseq/polyscan/internal/shift"
	"github.com/hivseq/polyscan/internal/tabular"
)

// Stats summarizes a conversion run.
type Stats struct {
	Total     int // records read
	Written   int // records written
	Dropped   int // removed by the drop policy
	Clamped   int // moved by the clamp policy
	Collapsed int // clamped to an empty interval and not written
}

// Converter runs the table/GTF conversions, optionally shifting
// coordinates on the way.
type Converter struct {
	opts    Options
	shifter *shift.Shifter
	logger  *zap.Logger
}

// New creates a Converter. A nil shifter disables coordinate shifting.
func New(opts Options, shifter *shift.Shifter) *Converter {
	return &Converter{opts: opts, shifter: shifter, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress and warning messages.
func (c *Converter) SetLogger(l *zap.Logger) {
	c.logger = l
}

// TabularToGTF reads a region table and writes GTF lines.
func (c *Converter) TabularToGTF(in *tabular.Reader, out io.Writer) (Stats, error) {
	regions, err := in.ReadAll()
	if err != nil {
		return Stats{}, err
	}
	return c.RegionsToGTF(regions, out)
}

// RegionsToGTF writes regions as GTF lines, numbering them in order.
func (c *Converter) RegionsToGTF(regions []region.Region, out io.Writer) (Stats, error) {
	recs := make([]region.Record, len(regions))
	for i, r := range regions {
		recs[i] = ToRecord(r, i+1, c.opts)
	}

	return c.writeGTF(recs, out)
}

// ShiftGTF reads GTF records and writes them back with shifted coordinates.
// All other columns and attributes are carried over.
func (c *Converter) ShiftGTF(in *gtf.Reader, out io.Writer) (Stats, error) {
	recs, err := in.ReadAll()
	if err != nil {
		return Stats{}, err
	}
	return c.writeGTF(recs, out)
}

// GTFToTabular reads GTF records and writes a region table with a header.
func (c *Converter) GTFToTabular(in *gtf.Reader, out *tabular.Writer) (Stats, error) {
	recs, err := in.ReadAll()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: len(recs)}
	recs, err = c.applyShift(recs, &stats)
	if err != nil {
		return stats, err
	}

	if err := out.WriteHeader(); err != nil {
		return stats, fmt.Errorf("write header: %w", err)
	}
	for _, rec := range recs {
		if rec.Len() == 0 {
			stats.Collapsed++
			continue
		}
		r, err := FromRecord(rec)
		if err != nil {
			return stats, err
		}
		if err := out.Write(r); err != nil {
			return stats, fmt.Errorf("write region: %w", err)
		}
		stats.Written++
	}
	if err := out.Flush(); err != nil {
		return stats, fmt.Errorf("flush table: %w", err)
	}

	c.report(stats)
	return stats, nil
}

func (c *Converter) writeGTF(recs []region.Record, out io.Writer) (Stats, error) {
	stats := Stats{Total: len(recs)}
	recs, err := c.applyShift(recs, &stats)
	if err != nil {
		return stats, err
	}

	w := gtf.NewWriter(out)
	for _, rec := range recs {
		if rec.Len() == 0 {
			stats.Collapsed++
			continue
		}
		if err := w.Write(rec); err != nil {
			return stats, fmt.Errorf("write GTF: %w", err)
		}
		stats.Written++
	}
	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("flush GTF: %w", err)
	}

	c.report(stats)
	return stats, nil
}

func (c *Converter) applyShift(recs []region.Record, stats *Stats) ([]region.Record, error) {
	if c.shifter == nil {
		return recs, nil
	}
	res, err := c.shifter.Shift(recs)
	if err != nil {
		return nil, err
	}
	stats.Dropped = res.Dropped
	stats.Clamped = res.Clamped
	return res.Records, nil
}

func (c *Converter) report(stats Stats) {
	c.logger.Info("conversion complete",
		zap.Int("total", stats.Total),
		zap.Int("written", stats.Written),
		zap.Int("dropped", stats.Dropped),
		zap.Int("clamped", stats.Clamped),
		zap.Int("collapsed", stats.Collapsed))

	if stats.Collapsed > 0 {
		c.logger.Warn("records clamped to an empty interval were not written",
			zap.Int("count", stats.Collapsed))
	}
	if stats.Total > 0 && stats.Written == 0 {
		c.logger.Warn("no records were written; the shift may exceed every start position")
	}
}
