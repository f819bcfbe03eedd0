package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/strandtools/refgenome/internal/store"
)

func newCatalogCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the persistent genome catalog",
		Long:  "The catalog is a DuckDB database of genome snapshots. Genomes added here can be referenced by name in other commands' --genome flags after export.",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Catalog database path (default ~/.refgenome.duckdb)")

	openCatalog := func() (*store.Store, error) {
		path := dbPath
		if path == "" {
			path = viper.GetString("catalog.path")
		}
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("cannot determine home directory: %w", err)
			}
			path = filepath.Join(home, ".refgenome.duckdb")
		}
		return store.Open(path)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored genomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openCatalog()
			if err != nil {
				return err
			}
			defer s.Close()
			names, err := s.ListGenomes()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("# Catalog is empty")
				return nil
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name|genome.json>",
		Short: "Store a genome snapshot in the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := resolveGenome(args[0])
			if err != nil {
				return err
			}
			s, err := openCatalog()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.PutGenome(g); err != nil {
				return err
			}
			fmt.Printf("Stored %s\n", g.Name())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <name>",
		Short: "Remove a genome from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openCatalog()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.DeleteGenome(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export <name> <out.json>",
		Short: "Write a stored genome back to a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openCatalog()
			if err != nil {
				return err
			}
			defer s.Close()
			g, err := s.GetGenome(args[0])
			if err != nil {
				return err
			}
			if err := g.Write(args[1]); err != nil {
				return err
			}
			fmt.Printf("Exported %s to %s\n", g.Name(), args[1])
			return nil
		},
	})

	return cmd
}
