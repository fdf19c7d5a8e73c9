package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hivseq/polyscan/internal/align"
	"github.com/hivseq/polyscan/internal/store"
)

func newAlignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "align <trimmed.csv>",
		Short: "Align trimmed reads to a reference with bowtie2",
		Long: `Reverse-complement each trimmed read, align it with bowtie2 in local
very-sensitive mode, and keep alignments with MAPQ of at least --min-mapq.
Writes alignment_results.csv and alignment_stats.txt to --output-dir.`,
		Example: `  polyscan align --index hiv_index reads_trimmed.csv
  polyscan align --index hiv_index --workers 4 --db results.duckdb reads_trimmed.csv`,
		Args: exactArgs(1),
		PreRunE: bindFlags(map[string]string{
			"align.index":      "index",
			"align.bowtie2":    "bowtie2",
			"align.threads":    "threads",
			"align.workers":    "workers",
			"align.min-mapq":   "min-mapq",
			"align.chunk-size": "chunk-size",
			"align.output-dir": "output-dir",
			"align.tmp-dir":    "tmp-dir",
			"db":               "db",
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := viper.GetString("align.index")
			if index == "" {
				return &usageError{fmt.Errorf("--index is required")}
			}

			cfg := align.DefaultConfig()
			cfg.ChunkSize = viper.GetInt("align.chunk-size")
			cfg.MinMapQ = viper.GetInt("align.min-mapq")
			cfg.Workers = viper.GetInt("align.workers")
			cfg.TempDir = viper.GetString("align.tmp-dir")

			p, err := align.New(&align.Bowtie2{
				Binary:  viper.GetString("align.bowtie2"),
				Index:   index,
				Threads: viper.GetInt("align.threads"),
			}, cfg)
			if err != nil {
				return &usageError{err}
			}
			p.SetLogger(logger)

			return runAlign(cmd, p, cfg, args[0])
		},
	}

	f := cmd.Flags()
	f.String("index", "", "bowtie2 index basename (required)")
	f.String("bowtie2", align.DefaultBinary, "bowtie2 executable")
	f.Int("threads", 1, "bowtie2 threads per chunk")
	f.Int("workers", align.DefaultWorkers, "chunks aligned concurrently")
	f.Int("min-mapq", align.DefaultMinMapQ, "minimum mapping quality kept")
	f.Int("chunk-size", align.DefaultChunkSize, "reads per alignment chunk")
	f.String("output-dir", ".", "directory for results and statistics")
	f.String("tmp-dir", "", "directory for temporary FASTA and SAM files")
	f.String("db", "", "also store alignments in this DuckDB database")

	return cmd
}

func runAlign(cmd *cobra.Command, p *align.Pipeline, cfg align.Config, inputPath string) error {
	in, err := openInput(cmd, inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	outDir := viper.GetString("align.output-dir")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	resultsPath := filepath.Join(outDir, align.ResultsFile)
	results, err := os.Create(resultsPath)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer results.Close()

	var db *store.Store
	if path := viper.GetString("db"); path != "" {
		db, err = store.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	hw := align.NewHitWriter(results)
	if err := hw.WriteHeader(); err != nil {
		return err
	}
	stats, err := p.Run(cmd.Context(), in, func(hits []align.Hit) error {
		if err := hw.Write(hits); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		if db != nil {
			if err := db.WriteAlignments(hits); err != nil {
				return fmt.Errorf("store alignments: %w", err)
			}
		}
		return nil
	})
	if ferr := hw.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close results file: %w", err)
	}

	statsPath := filepath.Join(outDir, align.StatsFile)
	sf, err := os.Create(statsPath)
	if err != nil {
		return fmt.Errorf("create stats file: %w", err)
	}
	if err := align.WriteStats(sf, stats, cfg.MinMapQ); err != nil {
		sf.Close()
		return fmt.Errorf("write stats: %w", err)
	}
	if err := sf.Close(); err != nil {
		return fmt.Errorf("close stats file: %w", err)
	}

	logger.Info("alignment complete",
		zap.Int("records", stats.Total),
		zap.Int("mapped", stats.Mapped),
		zap.Int("unmapped", stats.Unmapped),
		zap.Int("low_mapq", stats.LowMapQ),
		zap.String("results", resultsPath),
		zap.String("stats", statsPath))
	return nil
}
