// Package bundle reads and writes the result pair a calculation run
// produces: the yield row CSV and the companion metadata text file. The
// distribution phase accepts the same pair back, so the formats double as
// the handoff contract between both halves of the tool.
package bundle

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"xrpl-airdrop/internal/domain"
)

// Default file names inside a result directory.
const (
	DefaultDataFile = "airdrop_data.csv"
	DefaultMetaFile = "airdrop_metadata.txt"
)

// Column headers shared by writer and reader. The token column carries the
// token's display name instead, which is how the reader recognizes it.
const (
	ColumnAddress = "Address"
	ColumnYield   = "Yield"
	ColumnSplit   = "Split"
)

// Metadata keys. The reader matches them by substring, so a writer may
// decorate the lines as long as the key text survives.
const (
	KeyFiltered = "Filtered trustlines"
	KeyFetched  = "Fetched trustlines"
	KeySum      = "Trustline sum"
	KeyRatio    = "Airdrop ratio"
	KeyElapsed  = "Total elapsed time"
)

// Bundle is a complete run result ready to be persisted.
type Bundle struct {
	TokenName string
	Rows      []domain.YieldRecord
	Summary   domain.RunSummary
}

// Write stores both files under dir with the default names.
func (b *Bundle) Write(dir string) error {
	if err := b.WriteData(filepath.Join(dir, DefaultDataFile)); err != nil {
		return err
	}
	return b.WriteMetadata(filepath.Join(dir, DefaultMetaFile))
}

// WriteData writes the yield rows as CSV. The Split column appears only
// when the rows carry splits, i.e. the trustline sum reached 1.
func (b *Bundle) WriteData(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create data file: %w", err)
	}
	defer f.Close()

	withSplit := len(b.Rows) > 0 && b.Rows[0].HasSplit

	w := csv.NewWriter(f)
	header := []string{ColumnAddress, b.TokenName, ColumnYield}
	if withSplit {
		header = append(header, ColumnSplit)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range b.Rows {
		record := []string{row.Address, row.Balance.String(), row.Yield.String()}
		if withSplit {
			record = append(record, row.Split.String()+"%")
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row for %s: %w", row.Address, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush data file: %w", err)
	}
	return f.Close()
}

// WriteMetadata writes the companion metadata file. The elapsed time line
// is cosmetic; readers ignore it.
func (b *Bundle) WriteMetadata(path string) error {
	content := fmt.Sprintf("%s: %d\n%s: %d\n%s: %s\n%s: %s\n%s: %s\n",
		KeyFiltered, b.Summary.Filtered,
		KeyFetched, b.Summary.Fetched,
		KeySum, b.Summary.Sum.String(),
		KeyRatio, b.Summary.Ratio.String(),
		KeyElapsed, formatElapsed(b.Summary.Elapsed),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write metadata file: %w", err)
	}
	return nil
}

// formatElapsed renders a duration as h:mm:ss.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
