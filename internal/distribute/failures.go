package distribute

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// WriteFailures stores the failure log as a destination,amount CSV so the
// operator can settle the remainder by hand or with a later run.
func WriteFailures(path string, failures []FailedPayment) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create failure log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"destination", "amount"}); err != nil {
		return fmt.Errorf("write failure log header: %w", err)
	}
	for _, fp := range failures {
		if err := w.Write([]string{fp.Destination, fp.Amount}); err != nil {
			return fmt.Errorf("write failure log row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush failure log: %w", err)
	}
	return f.Close()
}

// RenderFailures prints the failure log to w. Used as the fallback when
// the CSV cannot be written; the addresses must end up somewhere the
// operator can see them.
func RenderFailures(w io.Writer, failures []FailedPayment) {
	fmt.Fprintf(w, "%d payments failed:\n", len(failures))
	for _, fp := range failures {
		fmt.Fprintf(w, "  %s  %s  (%v)\n", fp.Destination, fp.Amount, fp.Err)
	}
}
