package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hivseq/polyscan/internal/convert"
	"github.com/hivseq/polyscan/internal/genome"
	"github.com/hivseq/polyscan/internal/region"
	"github.com/hivseq/polyscan/internal/scan"
	"github.com/hivseq/polyscan/internal/store"
	"github.com/hivseq/polyscan/internal/tabular"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <fasta>",
		Short: "Find regions dense in one nucleotide",
		Long: `Slide a fixed-size window over every sequence in a FASTA file, keep windows
holding at least --threshold copies of --target, and merge overlapping
windows into regions.`,
		Example: `  polyscan scan HXB2.fa                       # polyA regions as a table
  polyscan scan -w 30 -t 20 HXB2.fa -o hits.tsv
  polyscan scan --gtf HXB2.fa -o polyA.gtf`,
		Args: exactArgs(1),
		PreRunE: bindFlags(map[string]string{
			"scan.window":      "window",
			"scan.threshold":   "threshold",
			"scan.target":      "target",
			"output.delimiter": "delimiter",
			"db":               "db",
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseSymbol("target", viper.GetString("scan.target"))
			if err != nil {
				return err
			}
			s, err := scan.NewScanner(scan.Config{
				WindowSize: viper.GetInt("scan.window"),
				Threshold:  viper.GetInt("scan.threshold"),
				Target:     target,
			})
			if err != nil {
				return &usageError{err}
			}

			regions, err := scanFASTA(cmd.Context(), args[0], func(seq genome.Sequence) []region.Region {
				return s.Regions(seq.Name, seq.Bases)
			})
			if err != nil {
				return err
			}
			return emitRegions(cmd, regions, target)
		},
	}

	f := cmd.Flags()
	f.IntP("window", "w", scan.DefaultWindowSize, "window size in bases")
	f.IntP("threshold", "t", scan.DefaultThreshold, "minimum target count per window")
	f.String("target", string(rune(scan.DefaultTarget)), "nucleotide to count")
	addRegionOutputFlags(cmd)

	return cmd
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs <fasta>",
		Short: "Find maximal homopolymer runs",
		Example: `  polyscan runs HXB2.fa                       # polyC runs of 5 or more
  polyscan runs --symbol G --min-length 8 HXB2.fa`,
		Args: exactArgs(1),
		PreRunE: bindFlags(map[string]string{
			"runs.symbol":      "symbol",
			"runs.min-length":  "min-length",
			"output.delimiter": "delimiter",
			"db":               "db",
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol, err := parseSymbol("symbol", viper.GetString("runs.symbol"))
			if err != nil {
				return err
			}
			minLen := viper.GetInt("runs.min-length")
			if minLen < 1 {
				return &usageError{fmt.Errorf("--min-length must be positive, got %d", minLen)}
			}

			regions, err := scanFASTA(cmd.Context(), args[0], func(seq genome.Sequence) []region.Region {
				return scan.RunRegions(seq.Name, seq.Bases, symbol, minLen)
			})
			if err != nil {
				return err
			}
			return emitRegions(cmd, regions, symbol)
		},
	}

	f := cmd.Flags()
	f.String("symbol", string(rune(scan.DefaultRunSymbol)), "nucleotide forming the runs")
	f.Int("min-length", scan.DefaultRunLength, "minimum run length")
	addRegionOutputFlags(cmd)

	return cmd
}

func addRegionOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output", "o", "-", "output file")
	f.Bool("gtf", false, "write GTF instead of a table")
	f.String("delimiter", "tab", "table delimiter: tab or comma")
	f.String("db", "", "also store regions in this DuckDB database")
}

// scanFASTA applies find to every record of a FASTA file.
func scanFASTA(ctx context.Context, path string, find func(genome.Sequence) []region.Region) ([]region.Region, error) {
	r, err := genome.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var all []region.Region
	for seq, err := range r.All() {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found := find(seq)
		logger.Info("scanned sequence",
			zap.String("name", seq.Name),
			zap.Int("length", seq.Len()),
			zap.Int("regions", len(found)))
		all = append(all, found...)
	}
	return all, nil
}

// emitRegions writes regions as a table or GTF and optionally stores them.
func emitRegions(cmd *cobra.Command, regions []region.Region, target byte) error {
	out, closeOut, err := createOutput(cmd, mustString(cmd, "output"))
	if err != nil {
		return err
	}

	if mustBool(cmd, "gtf") {
		opts := convert.DefaultOptions()
		opts.Target = target
		c := convert.New(opts, nil)
		c.SetLogger(logger)
		_, err = c.RegionsToGTF(regions, out)
	} else {
		err = writeTable(out, regions)
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if path := viper.GetString("db"); path != "" {
		db, err := store.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.WriteRegions(regions); err != nil {
			return fmt.Errorf("store regions: %w", err)
		}
		logger.Info("stored regions", zap.String("db", path), zap.Int("count", len(regions)))
	}
	return nil
}

func writeTable(out io.Writer, regions []region.Region) error {
	delim, err := tabular.ParseDelimiter(viper.GetString("output.delimiter"))
	if err != nil {
		return &usageError{err}
	}
	w := tabular.NewWriter(out, delim)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	for _, r := range regions {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return w.Flush()
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func mustBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}
