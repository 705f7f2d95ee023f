package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"readfaker/config"
	"readfaker/model"
)

func modelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Build and inspect length/quality models",
	}

	cmd.AddCommand(modelBuildCommand())
	cmd.AddCommand(modelShowCommand())
	return cmd
}

func modelBuildCommand() *cobra.Command {
	var in, out string
	var seed uint64

	fc := config.Default()
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a model from FASTQ or BAM reads and save it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := fc.Model.Validate(); err != nil {
				return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
			}

			m, err := buildModel(in, fc.Model, seed)
			if err != nil {
				return err
			}

			if err := m.SaveFile(out); err != nil {
				return err
			}

			log.Infof("model saved to %s", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "input", "i", "", "Reads (FASTQ or BAM)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Model file")
	cmd.Flags().Uint64VarP(&seed, "seed", "s", 0, "Seed of the quality profile sampling")
	addModelFlags(cmd.Flags(), fc)
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")

	return cmd
}

func modelShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <model file>",
		Short: "Print the length bins of a saved model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := model.LoadFile(args[0])
			if err != nil {
				return err
			}

			return printModel(os.Stdout, m)
		},
	}
}

func printModel(w io.Writer, m *model.Model) error {
	minLen, maxLen := m.LengthRange()
	fmt.Fprintf(w, "reads: %d, bins: %d, quality profiles: %d\n", m.Count(), len(m.Bins), m.PoolSize())
	fmt.Fprintf(w, "lengths: %d-%d, mean %.1f\n\n", minLen, maxLen, m.MeanLength())

	fmt.Fprintf(w, "%10s %10s %10s %8s %8s\n", "min", "max", "reads", "weight", "pool")
	for _, b := range m.Bins {
		if _, err := fmt.Fprintf(w, "%10d %10d %10d %8.4f %8d\n", b.MinLen, b.MaxLen, b.Count, b.Weight, len(b.Pool)); err != nil {
			return err
		}
	}

	return nil
}

func configCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print a configuration file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return config.Default().Write(os.Stdout)
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}

			if err := config.Default().Write(f); err != nil {
				f.Close()
				return err
			}

			return f.Close()
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default stdout)")
	return cmd
}
