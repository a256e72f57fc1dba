package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registrar",
		Short: "Record-linkage tooling for the quality-assurance registry",
		Long: `Registrar ingests institution and quality-assurance-report records from
CSV files, JSON feeds and the registry's REST catalogue.

Before any record reaches the authoritative registry it is normalized into
canonical form and checked for probable duplicates hiding behind different
spellings, URLs or identifiers. Duplicate candidates are flagged for human
review, never resolved automatically.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newDuplicatesCmd())

	return cmd
}
