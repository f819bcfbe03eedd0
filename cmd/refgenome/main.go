// Package main provides the refgenome command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/strandtools/refgenome/internal/genome"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "refgenome",
		Short:         "Reference genome coordinates, sequence lookup, and liftover",
		Long:          "refgenome validates genome assembly definitions, answers sequence queries against indexed FASTA files, and translates coordinates between assemblies via chain files.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	_ = viper.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newGenomeCmd())
	cmd.AddCommand(newSeqCmd())
	cmd.AddCommand(newLiftoverCmd())
	cmd.AddCommand(newCatalogCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("refgenome version %s (%s) built %s\n", version, commit, date)
		},
	}
}

func initConfig() error {
	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetConfigName(".refgenome")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(home)
	}
	viper.SetEnvPrefix("REFGENOME")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func newLogger() *zap.Logger {
	if viper.GetBool("verbose") {
		l, err := zap.NewDevelopment()
		if err == nil {
			return l
		}
	}
	return zap.NewNop()
}

// resolveGenome accepts either a built-in assembly name (GRCh37, GRCh38),
// a name registered earlier in the catalog, or a path to a genome JSON
// file.
func resolveGenome(nameOrPath string) (*genome.ReferenceGenome, error) {
	reg := genome.NewRegistry()
	if reg.Has(nameOrPath) {
		return reg.Get(nameOrPath)
	}
	if _, err := os.Stat(nameOrPath); err == nil {
		return genome.Read(nameOrPath)
	}
	return nil, fmt.Errorf("genome %q is neither a known assembly nor a readable file", nameOrPath)
}
