package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/strandtools/refgenome/internal/genome"
)

func newGenomeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genome",
		Short: "Inspect and convert genome definitions",
	}
	cmd.AddCommand(newGenomeValidateCmd())
	cmd.AddCommand(newGenomeShowCmd())
	cmd.AddCommand(newGenomeConvertCmd())
	return cmd
}

func newGenomeValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <genome.json>",
		Short: "Validate a genome definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := genome.Read(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: OK (%d contigs, %d PAR intervals)\n",
				g.Name(), g.NContigs(), len(g.PARIntervals()))
			return nil
		},
	}
}

func newGenomeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name|genome.json>",
		Short: "Print a genome's structural state as YAML",
		Example: `  refgenome genome show GRCh38
  refgenome genome show my_assembly.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := resolveGenome(args[0])
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(g.Snapshot())
			if err != nil {
				return fmt.Errorf("marshaling genome: %w", err)
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

func newGenomeConvertCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "convert <name|in.json> <out.json>",
		Short: "Re-serialize a genome, optionally under a new name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := resolveGenome(args[0])
			if err != nil {
				return err
			}
			if name != "" {
				if g, err = g.Copy(name); err != nil {
					return err
				}
			}
			if err := g.Write(args[1]); err != nil {
				return err
			}
			fmt.Printf("Wrote %s to %s\n", g.Name(), args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Rename the genome in the output")
	return cmd
}
