package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hivseq/polyscan/internal/reads"
)

func newReadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reads",
		Short: "Prepare single-cell reads for alignment",
	}

	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newTrimCmd())

	return cmd
}

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <in.fastq[.gz]> <out.csv>",
		Short: "Split reads into cell barcode, UMI and sequence",
		Long: `Split every FASTQ read into its cell barcode, its UMI and the remaining
sequence, and record the read's mean Phred quality. Reads shorter than the
barcode and UMI together are skipped.`,
		Example: `  polyscan reads extract combined_R1.fastq.gz reads.csv`,
		Args:    exactArgs(2),
		PreRunE: bindFlags(map[string]string{
			"reads.barcode-length": "barcode-length",
			"reads.umi-length":     "umi-length",
			"reads.chunk-size":     "chunk-size",
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := reads.DefaultConfig()
			cfg.BarcodeLen = viper.GetInt("reads.barcode-length")
			cfg.UMILen = viper.GetInt("reads.umi-length")
			cfg.ChunkSize = viper.GetInt("reads.chunk-size")
			cfg.Logger = logger
			if err := cfg.Validate(); err != nil {
				return &usageError{err}
			}

			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			out, closeOut, err := createOutput(cmd, args[1])
			if err != nil {
				return err
			}

			stats, err := reads.Extract(cmd.Context(), in, out, cfg)
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			logger.Info("extraction complete",
				zap.Int("reads", stats.Reads),
				zap.Int("written", stats.Written),
				zap.Int("skipped", stats.Skipped))
			return nil
		},
	}

	f := cmd.Flags()
	f.Int("barcode-length", reads.DefaultBarcodeLen, "cell barcode length")
	f.Int("umi-length", reads.DefaultUMILen, "UMI length")
	f.Int("chunk-size", reads.DefaultChunkSize, "reads per output chunk")

	return cmd
}

func newTrimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trim <in.csv> <out.csv>",
		Short: "Strip a leading homopolymer from the Sequence column",
		Example: `  polyscan reads trim reads.csv reads_trimmed.csv          # strip leading T
  polyscan reads trim --symbol A reads.csv reads_trimmed.csv`,
		Args: exactArgs(2),
		PreRunE: bindFlags(map[string]string{
			"reads.trim-symbol": "symbol",
			"reads.chunk-size":  "chunk-size",
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol, err := parseSymbol("symbol", viper.GetString("reads.trim-symbol"))
			if err != nil {
				return err
			}
			cfg := reads.DefaultConfig()
			cfg.TrimSymbol = symbol
			cfg.ChunkSize = viper.GetInt("reads.chunk-size")
			cfg.Logger = logger
			if err := cfg.Validate(); err != nil {
				return &usageError{err}
			}

			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			out, closeOut, err := createOutput(cmd, args[1])
			if err != nil {
				return err
			}

			stats, err := reads.Trim(cmd.Context(), in, out, cfg)
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			logger.Info("trim complete", zap.Int("rows", stats.Written))
			return nil
		},
	}

	f := cmd.Flags()
	f.String("symbol", string(rune(reads.DefaultTrimSymbol)), "leading nucleotide to strip")
	f.Int("chunk-size", reads.DefaultChunkSize, "rows per output chunk")

	return cmd
}
