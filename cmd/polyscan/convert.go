package main

import (
	"maps"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hivseq/polyscan/internal/convert"
	"github.com/hivseq/polyscan/internal/gtf"
	"github.com/hivseq/polyscan/internal/shift"
	"github.com/hivseq/polyscan/internal/tabular"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert regions between tables and GTF",
	}

	cmd.AddCommand(newToGTFCmd())
	cmd.AddCommand(newToTableCmd())

	return cmd
}

func newToGTFCmd() *cobra.Command {
	keys := map[string]string{
		"convert.delimiter": "delimiter",
		"convert.source":    "source",
		"convert.feature":   "feature",
		"convert.target":    "target",
	}
	maps.Copy(keys, shiftKeys)

	cmd := &cobra.Command{
		Use:   "to-gtf <in.tsv> <out.gtf>",
		Short: "Convert a region table to GTF",
		Example: `  polyscan convert to-gtf polyA.tsv polyA.gtf
  polyscan convert to-gtf --delimiter comma --shift polyA.csv polyA_shifted.gtf`,
		Args:    exactArgs(2),
		PreRunE: bindFlags(keys),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseSymbol("target", viper.GetString("convert.target"))
			if err != nil {
				return err
			}
			delim, err := tabular.ParseDelimiter(viper.GetString("convert.delimiter"))
			if err != nil {
				return &usageError{err}
			}
			shifter, err := optionalShifter(cmd)
			if err != nil {
				return err
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

			c := convert.New(convert.Options{
				Source:  viper.GetString("convert.source"),
				Feature: viper.GetString("convert.feature"),
				Target:  target,
			}, shifter)
			c.SetLogger(logger)
			_, err = c.TabularToGTF(tabular.NewReader(in, args[0], delim), out)
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			return err
		},
	}

	f := cmd.Flags()
	f.String("delimiter", "tab", "input delimiter: tab or comma")
	f.String("source", convert.DefaultSource, "GTF source column")
	f.String("feature", "", "GTF feature column (default derived from --target)")
	f.String("target", "A", "nucleotide the regions are rich in")
	f.Bool("shift", false, "shift coordinates while converting")
	addShiftFlags(cmd)

	return cmd
}

func newToTableCmd() *cobra.Command {
	keys := map[string]string{"convert.delimiter": "delimiter"}
	maps.Copy(keys, shiftKeys)

	cmd := &cobra.Command{
		Use:     "to-table <in.gtf> <out.tsv>",
		Short:   "Convert GTF features to a region table",
		Example: `  polyscan convert to-table polyA.gtf polyA.tsv`,
		Args:    exactArgs(2),
		PreRunE: bindFlags(keys),
		RunE: func(cmd *cobra.Command, args []string) error {
			delim, err := tabular.ParseDelimiter(viper.GetString("convert.delimiter"))
			if err != nil {
				return &usageError{err}
			}
			shifter, err := optionalShifter(cmd)
			if err != nil {
				return err
			}

			in, err := gtf.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			out, closeOut, err := createOutput(cmd, args[1])
			if err != nil {
				return err
			}

			c := convert.New(convert.DefaultOptions(), shifter)
			c.SetLogger(logger)
			_, err = c.GTFToTabular(in, tabular.NewWriter(out, delim))
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			return err
		},
	}

	f := cmd.Flags()
	f.String("delimiter", "tab", "output delimiter: tab or comma")
	f.Bool("shift", false, "shift coordinates while converting")
	addShiftFlags(cmd)

	return cmd
}

// optionalShifter returns a shifter when --shift is set, nil otherwise.
func optionalShifter(cmd *cobra.Command) (*shift.Shifter, error) {
	if !mustBool(cmd, "shift") {
		return nil, nil
	}
	return newShifter()
}
