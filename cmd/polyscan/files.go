package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hivseq/polyscan/internal/reads"
)

// openInput opens path for reading; "-" is stdin. Files ending in .gz
// are decompressed.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return reads.Open(path)
}

// createOutput creates path for writing; "-" or "" is stdout. The
// returned close function must be called to flush file output.
func createOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

// parseSymbol checks that s is a single character.
func parseSymbol(name, s string) (byte, error) {
	if len(s) != 1 {
		return 0, &usageError{fmt.Errorf("--%s must be a single nucleotide, got %q", name, s)}
	}
	return s[0], nil
}
