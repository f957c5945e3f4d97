package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ehdc-llpg/correlate/internal/correlate"
)

func writeTempCSV(t *testing.T, rows string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	if err := os.WriteFile(path, []byte(rows), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadDatasetCSVSetsKeysPerColumn(t *testing.T) {
	path := writeTempCSV(t, "uprn,postcode\n1001,GU341AA\n1002,GU311BB\n")

	d := correlate.NewDataset("llpg", 1)
	rows, err := LoadDatasetCSV(false, path, d, LoadCSVOptions{
		HasHeader:  true,
		KeyColumns: []int{0, 1},
		KeyFunc: func(column int, raw string) (any, bool) {
			if raw == "" {
				return nil, false
			}
			return raw, true
		},
	})
	if err != nil {
		t.Fatalf("LoadDatasetCSV returned error: %v", err)
	}
	if rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}

	if err := d.Set("1001", "already present, just checking Set doesn't error on a duplicate key"); err != nil {
		t.Errorf("re-using a key already loaded should not error: %v", err)
	}
}

func TestLoadDatasetCSVSkipsShortRowColumns(t *testing.T) {
	path := writeTempCSV(t, "1001\n")

	d := correlate.NewDataset("llpg", 1)
	rows, err := LoadDatasetCSV(false, path, d, LoadCSVOptions{
		KeyColumns: []int{0, 5},
		KeyFunc: func(column int, raw string) (any, bool) {
			return raw, true
		},
	})
	if err != nil {
		t.Fatalf("LoadDatasetCSV returned error: %v", err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}
}

func TestLoadDatasetCSVUsesValueFunc(t *testing.T) {
	path := writeTempCSV(t, "1001,GU341AA\n")

	type addr struct{ uprn, postcode string }
	var captured any

	d := correlate.NewDataset("llpg", 1)
	_, err := LoadDatasetCSV(false, path, d, LoadCSVOptions{
		KeyColumns: []int{0},
		KeyFunc: func(column int, raw string) (any, bool) {
			return raw, true
		},
		ValueFunc: func(row []string) any {
			v := addr{uprn: row[0], postcode: row[1]}
			captured = v
			return v
		},
	})
	if err != nil {
		t.Fatalf("LoadDatasetCSV returned error: %v", err)
	}
	if captured.(addr).postcode != "GU341AA" {
		t.Errorf("ValueFunc result postcode = %q, want %q", captured.(addr).postcode, "GU341AA")
	}
}

func TestLoadDatasetCSVMissingFile(t *testing.T) {
	d := correlate.NewDataset("llpg", 1)
	_, err := LoadDatasetCSV(false, "/nonexistent/file.csv", d, LoadCSVOptions{})
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
