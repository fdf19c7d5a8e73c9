package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hivseq/polyscan/internal/align"
	"github.com/hivseq/polyscan/internal/coverage"
	"github.com/hivseq/polyscan/internal/store"
)

func newCoverageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage [alignments.csv]",
		Short: "Compute and plot read coverage depth",
		Long: `Compute per-position read depth over a reference window from an alignment
results table (or the alignments stored in --db), then plot it as a PNG,
print a terminal preview, and optionally write a position/depth table.`,
		Example: `  polyscan coverage alignment_results.csv
  polyscan coverage --from 790 --to 2292 --png gag.png alignment_results.csv
  polyscan coverage --db results.duckdb --table depth.tsv`,
		Args: wrapArgs(cobra.MaximumNArgs(1)),
		PreRunE: bindFlags(map[string]string{
			"coverage.from":   "from",
			"coverage.to":     "to",
			"coverage.png":    "png",
			"coverage.width":  "width",
			"coverage.height": "height",
			"db":              "db",
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := coverage.DefaultConfig()
			cfg.From = viper.GetInt("coverage.from")
			cfg.To = viper.GetInt("coverage.to")
			cfg.PreviewWidth = viper.GetInt("coverage.width")
			cfg.PreviewRows = viper.GetInt("coverage.height")

			hits, err := loadHits(cmd, args)
			if err != nil {
				return err
			}

			depth, err := coverage.Depth(hits, cfg.From, cfg.To)
			if err != nil {
				return err
			}
			peak, at := coverage.Max(depth, cfg.From)
			logger.Info("computed coverage",
				zap.Int("hits", len(hits)),
				zap.Int("max_depth", peak),
				zap.Int("max_position", at))

			if path := viper.GetString("coverage.png"); path != "" {
				if err := coverage.SavePNG(path, depth, cfg.From); err != nil {
					return err
				}
				logger.Info("saved coverage plot", zap.String("path", path))
			}

			if path := mustString(cmd, "table"); path != "" {
				out, closeOut, err := createOutput(cmd, path)
				if err != nil {
					return err
				}
				err = coverage.WriteTable(out, depth, cfg.From)
				if cerr := closeOut(); err == nil {
					err = cerr
				}
				if err != nil {
					return fmt.Errorf("write coverage table: %w", err)
				}
			}

			if !mustBool(cmd, "no-preview") {
				fmt.Fprintln(cmd.ErrOrStderr(), coverage.Preview(depth, cfg.PreviewWidth, cfg.PreviewRows))
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Maximum coverage depth: %d at position %d\n", peak, at)
			return nil
		},
	}

	def := coverage.DefaultConfig()
	f := cmd.Flags()
	f.Int("from", def.From, "first reference position (1-based)")
	f.Int("to", def.To, "last reference position (inclusive)")
	f.String("png", "alignment_coverage.png", "plot output path (empty to skip)")
	f.String("table", "", "write a position/depth table to this file (- for stdout)")
	f.Int("width", def.PreviewWidth, "terminal preview width")
	f.Int("height", def.PreviewRows, "terminal preview height")
	f.Bool("no-preview", false, "skip the terminal preview")
	f.String("db", "", "read alignments from this DuckDB database")

	return cmd
}

func loadHits(cmd *cobra.Command, args []string) ([]align.Hit, error) {
	if len(args) == 1 {
		in, err := openInput(cmd, args[0])
		if err != nil {
			return nil, err
		}
		defer in.Close()
		return align.ReadHits(in)
	}

	path := viper.GetString("db")
	if path == "" {
		return nil, &usageError{fmt.Errorf("an alignments file or --db is required")}
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.Alignments()
}
