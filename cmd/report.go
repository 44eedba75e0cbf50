package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lexgraph/chainbench/internal/report"
)

var reportJSON bool

var reportCmd = &cobra.Command{
	Use:   "report <results.jsonl>",
	Short: "Summarize a results file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := report.ReadFile(args[0])
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return eris.Errorf("no results in %s", args[0])
		}

		summary := report.Summarize(runs)

		if reportJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}

		fmt.Println(summary.String())
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "emit the summary as JSON")
	rootCmd.AddCommand(reportCmd)
}
