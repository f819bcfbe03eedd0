package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strandtools/refgenome/internal/genome"
	"github.com/strandtools/refgenome/internal/liftover"
)

func newLiftoverCmd() *cobra.Command {
	var (
		genomeName string
		target     string
		minMatch   float64
	)
	cmd := &cobra.Command{
		Use:   "liftover <chain-file> <contig:pos>",
		Short: "Translate a locus into another assembly via a chain file",
		Example: `  refgenome liftover grch37_to_grch38.chain 1:1000000 --genome GRCh37 --target GRCh38
  refgenome liftover b37tohg38.chain X:155260460 --genome GRCh37 --target GRCh38 --min-match 0.99`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := resolveGenome(genomeName)
			if err != nil {
				return err
			}
			l, err := genome.ParseLocus(args[1])
			if err != nil {
				return err
			}

			eng := liftover.NewEngine(g)
			eng.SetLogger(newLogger())
			if err := eng.AddLiftover(args[0], target); err != nil {
				return err
			}

			lifted, err := eng.LiftoverLocus(target, l, minMatch)
			if err != nil {
				return err
			}
			if lifted == nil {
				fmt.Printf("%s: no mapping in %s (min match %.2f)\n", l, target, minMatch)
				return nil
			}
			strand := "+"
			if lifted.NegativeStrand {
				strand = "-"
			}
			fmt.Printf("%s -> %s (%s)\n", l, lifted.Locus, strand)
			return nil
		},
	}
	cmd.Flags().StringVar(&genomeName, "genome", "GRCh37", "Source assembly name or genome JSON file")
	cmd.Flags().StringVar(&target, "target", "GRCh38", "Target assembly name")
	cmd.Flags().Float64Var(&minMatch, "min-match", 0.95, "Minimum chain match fraction in [0,1]")
	return cmd
}
