package cmd

import (
	"github.com/hei-registry/registrar/internal/dupcmd"
	"github.com/spf13/cobra"
)

func newDuplicatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Find probable duplicates among existing registry records",
		Long: `Duplicate detection tools for records already in the registry.

Reports are fingerprinted over their semantically-identifying fields and
grouped into duplicate-candidate sets for human review.`,
	}

	cmd.AddCommand(dupcmd.NewReportsCmd())

	return cmd
}
