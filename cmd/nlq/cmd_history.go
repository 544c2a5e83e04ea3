package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"nlq-workers/internal/common/database"
)

var (
	historyTable string
	historySize  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent translations from the journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Database.Elasticsearch.Enabled {
			return database.ErrJournalDisabled
		}
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		journal := database.NewJournal(es.Client, cfg.Database.Elasticsearch.JournalIndex)

		entries, err := journal.Recent(cmd.Context(), historyTable, historySize)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tTABLE\tINTENT\tSOURCE\tTEXT\tSQL")
		for _, e := range entries {
			sql := e.SQL
			if e.Rejected != "" {
				sql = "(rejected: " + e.Rejected + ") " + sql
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"), e.Table, e.Intent, e.Source, e.Text, sql)
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyTable, "table", "t", "", "Only entries for this table")
	historyCmd.Flags().IntVarP(&historySize, "size", "n", 20, "Number of entries")
}
