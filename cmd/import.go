package cmd

import (
	"github.com/hei-registry/registrar/internal/importcmd"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import records into the registry",
		Long: `Import commands read records from local files, normalize them and check
them against the registry for probable duplicates before submission.`,
	}

	cmd.AddCommand(importcmd.NewInstitutionsCmd())

	return cmd
}
