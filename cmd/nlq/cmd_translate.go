package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"nlq-workers/internal/nlq"
	"nlq-workers/internal/nlq/patterns"
)

var (
	translateTable   string
	translateJSON    bool
	translateExecute bool
)

var translateCmd = &cobra.Command{
	Use:   "translate <text>",
	Short: "Translate one request",
	Long: `Translate one request and print the detected intent, entities and SQL.

The table comes from an @Table marker in the text or from --table. Without
--execute no database connection is made.`,
	Example: `  nlq translate "@InventoryItem show items where quantity > 5"
  nlq translate --table AuditLog "count entries" --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		if translateExecute {
			a, err := connect(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return runTranslate(ctx, cmd, a.Translator, a.Store, args[0])
		}

		// offline: only the pattern library is needed
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		lib, err := patterns.LoadOrDefault(cfg.Translator.PatternsFile)
		if err != nil {
			return err
		}
		t := nlq.NewTranslator(nlq.Options{Library: lib, Logger: newLogger()})
		return runTranslate(ctx, cmd, t, nil, args[0])
	},
}

func init() {
	translateCmd.Flags().StringVarP(&translateTable, "table", "t", "", "Table when the text has no @Table marker")
	translateCmd.Flags().BoolVar(&translateJSON, "json", false, "Print the translation as JSON")
	translateCmd.Flags().BoolVarP(&translateExecute, "execute", "x", false, "Plan and run the query")
}

func runTranslate(ctx context.Context, cmd *cobra.Command, t *nlq.Translator, store querier, text string) error {
	out := cmd.OutOrStdout()
	tr, err := t.Translate(ctx, nlq.Request{Text: text, Table: translateTable})
	if err != nil {
		return err
	}
	if translateJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tr)
	}
	printTranslation(out, tr)
	if store != nil {
		sh := newShell(t, store, out)
		sh.runPlan(ctx, tr)
	}
	return nil
}
