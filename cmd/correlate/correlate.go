package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ehdc-llpg/correlate/internal/addrparse"
	"github.com/ehdc-llpg/correlate/internal/correlate"
	"github.com/ehdc-llpg/correlate/internal/keys"
	"github.com/ehdc-llpg/correlate/internal/normalize"
	"github.com/ehdc-llpg/correlate/internal/store"
	"github.com/ehdc-llpg/correlate/internal/symspell"
)

// sideColumns bundles one dataset side's optional column indexes for the
// extra keys createCorrelateCmd can layer on top of the plain exact key
// column: a gopostal/fallback-parsed address column, a fuzzy street
// column, and a fuzzy locality column. -1 disables each.
type sideColumns struct {
	addressCol  int
	streetCol   int
	localityCol int
}

// extraKeysFunc builds the store.LoadCSVOptions.ExtraKeysFunc for one
// side: it feeds raw columns through internal/addrparse and
// internal/keys the same way cmd/gopostal-real and the teacher's
// match.Generators layered structured/fuzzy keys on top of a bare
// identifier match, so the fuzzy-scoring passes in internal/correlate
// have real domain keys to run against outside unit tests.
func extraKeysFunc(cols sideColumns, parser addrparse.Parser, corrector *symspell.Corrector) func(row []string) []any {
	return func(row []string) []any {
		var extra []any

		if parser != nil && cols.addressCol >= 0 && cols.addressCol < len(row) && row[cols.addressCol] != "" {
			c, err := parser.Parse(false, row[cols.addressCol])
			if err == nil {
				if c.HouseNumber != "" {
					extra = append(extra, "house_number:"+strings.ToUpper(c.HouseNumber))
				}
				if c.Road != "" {
					extra = append(extra, "road:"+strings.ToUpper(c.Road))
				}
			}
		}

		if cols.streetCol >= 0 && cols.streetCol < len(row) && row[cols.streetCol] != "" {
			canonical, _, _ := normalize.CanonicalAddress(row[cols.streetCol])
			extra = append(extra, keys.NewStreetKey(canonical, normalize.TokenizeStreet(canonical)))
		}

		if cols.localityCol >= 0 && cols.localityCol < len(row) && row[cols.localityCol] != "" {
			extra = append(extra, keys.NewLocalityKey(row[cols.localityCol], corrector))
		}

		return extra
	}
}

// createCorrelateCmd creates the correlate subcommand: loads two CSV
// files into an Engine's datasets by a single exact key column each,
// optionally layering parsed-address and fuzzy street/locality keys on
// top, runs Engine.Correlate, and persists the result, the same
// load-then-match-then-save shape cmd/matcher's match subcommands used,
// collapsed into one call since internal/correlate has no notion of a
// resumable multi-stage run.
func createCorrelateCmd() *cobra.Command {
	var aCSV, bCSV string
	var aKeyCol, bKeyCol int
	var aLabel, bLabel string
	var hasHeader bool
	var minScore float64
	var persist bool
	var useAddrParse bool
	var a, b sideColumns

	cmd := &cobra.Command{
		Use:   "correlate",
		Short: "Correlate two CSV-backed datasets by a shared key column",
		Run: func(cmd *cobra.Command, args []string) {
			eng := correlate.NewEngine(1)

			// Warm the global symspell corrector up front when a locality
			// column is in play, so keys.LocalityKey gets real correction
			// suggestions (rather than falling back to phonetic-only
			// matching) the same startup-time dictionary load
			// InitGlobalCorrector's callers use in the teacher's match
			// engine. This needs the database even when --persist is off.
			if a.localityCol >= 0 || b.localityCol >= 0 {
				conn := requireDB()
				if err := symspell.InitGlobalCorrector(conn.DB); err != nil {
					log.Printf("Warning: symspell dictionary unavailable: %v", err)
				}
			}
			corrector := symspell.GetCorrector()

			var parser addrparse.Parser
			if useAddrParse {
				parser = addrparse.WithFallback(addrparse.NewGopostalParser())
			}

			keyFunc := func(column int, raw string) (any, bool) {
				if raw == "" {
					return nil, false
				}
				return raw, true
			}

			if _, err := store.LoadDatasetCSV(false, aCSV, eng.A, store.LoadCSVOptions{
				HasHeader:     hasHeader,
				KeyColumns:    []int{aKeyCol},
				KeyFunc:       keyFunc,
				ExtraKeysFunc: extraKeysFunc(a, parser, corrector),
			}); err != nil {
				log.Fatalf("Failed to load %s: %v", aCSV, err)
			}

			if _, err := store.LoadDatasetCSV(false, bCSV, eng.B, store.LoadCSVOptions{
				HasHeader:     hasHeader,
				KeyColumns:    []int{bKeyCol},
				KeyFunc:       keyFunc,
				ExtraKeysFunc: extraKeysFunc(b, parser, corrector),
			}); err != nil {
				log.Fatalf("Failed to load %s: %v", bCSV, err)
			}

			opts := correlate.DefaultCorrelateOptions()
			opts.MinimumScore = minScore

			result, err := eng.Correlate(opts)
			if err != nil {
				log.Fatalf("Correlate failed: %v", err)
			}

			fmt.Printf("\n=== Correlation Results ===\n")
			fmt.Printf("Matches: %d\n", len(result.Matches))
			fmt.Printf("Unmatched (%s): %d\n", aLabel, len(result.UnmatchedA))
			fmt.Printf("Unmatched (%s): %d\n", bLabel, len(result.UnmatchedB))

			if !persist {
				return
			}

			conn := requireDB()

			if corrector == nil {
				if err := symspell.InitGlobalCorrector(conn.DB); err != nil {
					log.Printf("Warning: symspell dictionary unavailable: %v", err)
				}
			}

			s := store.New(conn.DB)

			runID, err := s.StartRun(false, aLabel, bLabel)
			if err != nil {
				log.Fatalf("Failed to start run: %v", err)
			}

			records := make([]store.MatchRecord, len(result.Matches))
			for i, m := range result.Matches {
				records[i] = store.MatchRecord{RunID: runID, ValueA: m.ValueA, ValueB: m.ValueB, Score: m.Score}
			}
			if err := s.SaveMatches(false, records); err != nil {
				log.Fatalf("Failed to save matches: %v", err)
			}
			if err := s.SaveUnmatched(false, runID, "a", result.UnmatchedA); err != nil {
				log.Fatalf("Failed to save unmatched %s: %v", aLabel, err)
			}
			if err := s.SaveUnmatched(false, runID, "b", result.UnmatchedB); err != nil {
				log.Fatalf("Failed to save unmatched %s: %v", bLabel, err)
			}

			fmt.Printf("Run ID: %d\n", runID)
		},
	}

	cmd.Flags().StringVar(&aCSV, "a-csv", "", "CSV file for dataset A")
	cmd.Flags().StringVar(&bCSV, "b-csv", "", "CSV file for dataset B")
	cmd.Flags().IntVar(&aKeyCol, "a-key-col", 0, "zero-based key column for dataset A")
	cmd.Flags().IntVar(&bKeyCol, "b-key-col", 0, "zero-based key column for dataset B")
	cmd.Flags().StringVar(&aLabel, "a-label", "a", "label for dataset A")
	cmd.Flags().StringVar(&bLabel, "b-label", "b", "label for dataset B")
	cmd.Flags().BoolVar(&hasHeader, "has-header", true, "skip the first row of both CSVs as a header")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "discard matches at or below this score")
	cmd.Flags().BoolVar(&persist, "persist", true, "save the run and its matches to the database")

	cmd.Flags().BoolVar(&useAddrParse, "use-addrparse", false, "extract house-number/road exact keys from --a-address-col/--b-address-col via libpostal (falls back to the plain tokenizer)")
	cmd.Flags().IntVar(&a.addressCol, "a-address-col", -1, "zero-based address column for dataset A to feed --use-addrparse (-1 disables)")
	cmd.Flags().IntVar(&b.addressCol, "b-address-col", -1, "zero-based address column for dataset B to feed --use-addrparse (-1 disables)")
	cmd.Flags().IntVar(&a.streetCol, "a-street-col", -1, "zero-based column for dataset A to build a fuzzy street key from (-1 disables)")
	cmd.Flags().IntVar(&b.streetCol, "b-street-col", -1, "zero-based column for dataset B to build a fuzzy street key from (-1 disables)")
	cmd.Flags().IntVar(&a.localityCol, "a-locality-col", -1, "zero-based column for dataset A to build a fuzzy locality key from (-1 disables)")
	cmd.Flags().IntVar(&b.localityCol, "b-locality-col", -1, "zero-based column for dataset B to build a fuzzy locality key from (-1 disables)")

	cmd.MarkFlagRequired("a-csv")
	cmd.MarkFlagRequired("b-csv")

	return cmd
}
