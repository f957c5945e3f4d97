package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/ehdc-llpg/correlate/internal/correlate"
	"github.com/ehdc-llpg/correlate/internal/store"
)

// createLoadCmd creates the load subcommand: a dry run that loads one
// CSV into a throwaway Dataset and reports how many data rows it read,
// so a malformed file surfaces before a full correlate run. Rows whose
// key cell is empty or beyond the row's length are counted too.
func createLoadCmd() *cobra.Command {
	var keyCol int
	var hasHeader bool

	cmd := &cobra.Command{
		Use:   "load [filename]",
		Short: "Validate a CSV file against a key column before correlating",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			filename := args[0]

			d := correlate.NewDataset(filename, 1)
			rows, err := store.LoadDatasetCSV(false, filename, d, store.LoadCSVOptions{
				HasHeader:  hasHeader,
				KeyColumns: []int{keyCol},
				KeyFunc: func(column int, raw string) (any, bool) {
					if raw == "" {
						return nil, false
					}
					return raw, true
				},
			})
			if err != nil {
				log.Fatalf("Failed to load %s: %v", filename, err)
			}

			fmt.Printf("Loaded %d rows from %s using column %d as key\n", rows, filename, keyCol)
		},
	}

	cmd.Flags().IntVar(&keyCol, "key-col", 0, "zero-based CSV column to use as the exact key")
	cmd.Flags().BoolVar(&hasHeader, "has-header", true, "skip the first row as a header")

	return cmd
}
