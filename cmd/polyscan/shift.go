package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hivseq/polyscan/internal/convert"
	"github.com/hivseq/polyscan/internal/gtf"
	"github.com/hivseq/polyscan/internal/shift"
)

var shiftKeys = map[string]string{
	"shift.offset": "offset",
	"shift.bound":  "bound",
	"shift.policy": "policy",
}

func newShiftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shift <in.gtf> <out.gtf>",
		Short: "Shift GTF feature coordinates by a fixed offset",
		Long: `Add --offset to the start and end of every feature. Features that fall off
the sequence are dropped, clamped to its bounds, or abort the run depending on
--policy. Every other column and attribute is carried over unchanged.`,
		Example: `  polyscan shift polyA.gtf polyA_shifted.gtf             # 300 bp upstream
  polyscan shift --offset 150 --bound 9719 --policy clamp in.gtf out.gtf`,
		Args:    exactArgs(2),
		PreRunE: bindFlags(shiftKeys),
		RunE: func(cmd *cobra.Command, args []string) error {
			shifter, err := newShifter()
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
			_, err = c.ShiftGTF(in, out)
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			return err
		},
	}

	addShiftFlags(cmd)
	return cmd
}

func addShiftFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("offset", shift.DefaultOffset, "signed offset added to start and end")
	f.Int("bound", 0, "sequence length for the upper bound check (0 disables)")
	f.String("policy", string(shift.PolicyDrop), "out-of-bounds policy: drop, clamp or fail")
}

func newShifter() (*shift.Shifter, error) {
	policy, err := shift.ParsePolicy(viper.GetString("shift.policy"))
	if err != nil {
		return nil, &usageError{err}
	}
	s, err := shift.New(shift.Config{
		Offset: viper.GetInt("shift.offset"),
		Bound:  viper.GetInt("shift.bound"),
		Policy: policy,
	})
	if err != nil {
		return nil, &usageError{err}
	}
	s.SetLogger(logger)
	return s, nil
}
