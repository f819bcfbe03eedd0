package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strandtools/refgenome/internal/genome"
	"github.com/strandtools/refgenome/internal/sequence"
)

func newSeqCmd() *cobra.Command {
	var (
		genomeName  string
		left, right int64
		end         string
	)
	cmd := &cobra.Command{
		Use:   "seq <fasta> <contig:pos>",
		Short: "Look up sequence from an indexed FASTA file",
		Long:  "Looks up sequence at a locus, with optional margins clamped to the contig, or over an interval given with --end. The FASTA may be gzip-compressed; a <fasta>.fai index is required.",
		Example: `  refgenome seq ref.fa 7:117559590 --left 10 --right 10
  refgenome seq ref.fa.gz 7:117559590 --end 8:100 --genome GRCh37`,
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

			r, err := sequence.NewReader(g, args[0], nil)
			if err != nil {
				return err
			}
			defer r.Close()
			r.SetLogger(newLogger())

			var seq string
			if end != "" {
				e, err := genome.ParseLocus(end)
				if err != nil {
					return err
				}
				iv, err := g.NewInterval(l, e, true, true)
				if err != nil {
					return err
				}
				seq, err = r.LookupInterval(cmd.Context(), iv)
				if err != nil {
					return err
				}
			} else {
				seq, err = r.Lookup(cmd.Context(), l.Contig, l.Position, left, right)
				if err != nil {
					return err
				}
			}
			fmt.Println(seq)
			return nil
		},
	}
	cmd.Flags().StringVar(&genomeName, "genome", "GRCh38", "Assembly name or genome JSON file")
	cmd.Flags().Int64Var(&left, "left", 0, "Bases to include before the locus (clamped)")
	cmd.Flags().Int64Var(&right, "right", 0, "Bases to include after the locus (clamped)")
	cmd.Flags().StringVar(&end, "end", "", "End locus for an interval lookup (contig:pos, inclusive)")
	return cmd
}
