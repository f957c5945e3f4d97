package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/ehdc-llpg/correlate/internal/correlate"
	"github.com/ehdc-llpg/correlate/internal/debug"
)

// LoadCSVOptions configures LoadDatasetCSV.
type LoadCSVOptions struct {
	// HasHeader skips the first row.
	HasHeader bool

	// KeyColumns are indexes mapped to a key via KeyFunc, one Dataset.Set
	// per column per row.
	KeyColumns []int

	// KeyFunc builds a key (exact or correlate.FuzzyKey) from a raw cell
	// value and the column index it came from.
	KeyFunc func(column int, raw string) (any, bool)

	// ValueFunc builds the dataset value for a row. Defaults to the full
	// row (a []string) when nil.
	ValueFunc func(row []string) any

	// ExtraKeysFunc, when non-nil, is called once per row after the
	// KeyColumns keys are set and may return additional keys (exact or
	// correlate.FuzzyKey) to attach to that row's value — the hook a
	// caller uses to layer in parsed address components or fuzzy keys
	// on top of the plain per-column exact keys above.
	ExtraKeysFunc func(row []string) []any
}

// LoadDatasetCSV reads filename and calls Dataset.Set for every
// (key, value) pair KeyFunc produces, the same row-to-insert shape the
// teacher's CSVImporter.ImportCSV uses, generalized to feed a
// correlate.Dataset instead of a src_document table.
func LoadDatasetCSV(localDebug bool, filename string, d *correlate.Dataset, opts LoadCSVOptions) (int, error) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	file, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("store: open %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	if opts.HasHeader {
		if _, err := reader.Read(); err != nil {
			return 0, fmt.Errorf("store: read header of %s: %w", filename, err)
		}
	}

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("store: read row %d of %s: %w", rows, filename, err)
		}

		value := any(record)
		if opts.ValueFunc != nil {
			value = opts.ValueFunc(record)
		}

		for _, col := range opts.KeyColumns {
			if col >= len(record) {
				continue
			}
			key, ok := opts.KeyFunc(col, record[col])
			if !ok {
				continue
			}
			if err := d.Set(key, value); err != nil {
				return rows, fmt.Errorf("store: set key for row %d of %s: %w", rows, filename, err)
			}
		}

		if opts.ExtraKeysFunc != nil {
			for _, key := range opts.ExtraKeysFunc(record) {
				if err := d.Set(key, value); err != nil {
					return rows, fmt.Errorf("store: set extra key for row %d of %s: %w", rows, filename, err)
				}
			}
		}

		rows++
	}

	debug.DebugOutput(localDebug, "loaded %d rows from %s", rows, filename)
	return rows, nil
}
