package main

import (
	"os"

	"github.com/spf13/cobra"
)

var replExecute bool

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive translation session",
	Long: `Start an interactive session.

A line holding only @Table selects that table and previews a few rows. Any
other line is translated against the selected table; with --execute the
planned query is run and its rows printed. Type exit to leave.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		sh := newShell(a.Translator, a.Store, cmd.OutOrStdout())
		sh.execute = replExecute
		sh.previewRows = a.Config.Translator.PreviewRows
		sh.maxRows = a.Config.Translator.MaxLimit
		sh.timeout = timeout
		return sh.run(cmd.Context(), os.Stdin)
	},
}

func init() {
	replCmd.Flags().BoolVarP(&replExecute, "execute", "x", false, "Run the planned query for each request")
}
