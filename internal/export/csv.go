// Package export writes the collected leads as a ranked CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"leadmart-engine/internal/domain"
)

// Header is the fixed CSV column set, in order.
var Header = []string{
	"Company Name",
	"Product Title/Description",
	"Price",
	"Address",
	"Phone Number",
	"Email",
	"Company Profile URL",
	"Product Catalog URL",
	"Relevancy Score (%)",
}

// WriteCSV sorts records by relevance descending (stable, so discovery
// order breaks ties) and writes them as UTF-8 CSV. The parent directory
// is created when missing. An existing file at path is overwritten, not
// appended to.
func WriteCSV(records []domain.LeadRecord, path string) error {
	sorted := make([]domain.LeadRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: create %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}
	for _, r := range sorted {
		row := []string{
			r.Company,
			r.Title.Export(),
			r.Price.Export(),
			r.Address.Export(),
			r.Phone.Export(),
			r.Email.Export(),
			r.ProfileURL.Export(),
			r.CatalogURL.Export(),
			strconv.Itoa(r.Score),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("export: row for %q: %w", r.Company, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("export: sync: %w", err)
	}
	return nil
}
