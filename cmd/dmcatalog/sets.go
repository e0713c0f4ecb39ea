package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-duelmasters/config"
)

func init() {
	rootCmd.AddCommand(setsCmd)
}

var setsCmd = &cobra.Command{
	Use:   "sets [set-prefix]",
	Short: "Prints the sets a scrape with the same prefix would select.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, err := config.ReadSetList(cfg.SetListFile)
		if err != nil {
			return err
		}
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Set", "URL"})
		for _, entry := range sets.Match(prefix) {
			t.AppendRow(table.Row{entry.Key, entry.URL})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
