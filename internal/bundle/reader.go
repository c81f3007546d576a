package bundle

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"xrpl-airdrop/internal/domain"
)

// Reader errors.
var (
	ErrEmptyData     = errors.New("data file has no rows")
	ErrBadHeader     = errors.New("unrecognized data header")
	ErrBadRow        = errors.New("malformed data row")
	ErrMissingKey    = errors.New("metadata key missing")
	ErrBadMetaValue  = errors.New("metadata value is not a number")
	ErrFractionCount = errors.New("metadata count is not an integer")
)

// Data is a parsed yield row file.
type Data struct {
	TokenName string
	HasSplit  bool
	Rows      []domain.YieldRecord
}

// Metadata is a parsed companion metadata file.
type Metadata struct {
	Filtered int
	Fetched  int
	Sum      decimal.Decimal
	Ratio    decimal.Decimal
}

// Read loads both files from dir using the default names.
func Read(dir string) (*Data, *Metadata, error) {
	data, err := ReadData(filepath.Join(dir, DefaultDataFile))
	if err != nil {
		return nil, nil, err
	}
	meta, err := ReadMetadata(filepath.Join(dir, DefaultMetaFile))
	if err != nil {
		return nil, nil, err
	}
	return data, meta, nil
}

// ReadData parses a yield row CSV. The token column is the one header
// that is not Address, Yield or Split; its name is the token's display
// name chosen at calculation time.
func ReadData(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse data file: %w", err)
	}
	if len(records) < 2 {
		return nil, ErrEmptyData
	}

	header := records[0]
	data := &Data{}
	tokenCol := -1
	addressCol, yieldCol, splitCol := -1, -1, -1
	for i, name := range header {
		switch name {
		case ColumnAddress:
			addressCol = i
		case ColumnYield:
			yieldCol = i
		case ColumnSplit:
			splitCol = i
		default:
			if tokenCol >= 0 {
				return nil, fmt.Errorf("%w: both %q and %q look like token columns", ErrBadHeader, header[tokenCol], name)
			}
			tokenCol = i
			data.TokenName = name
		}
	}
	if addressCol < 0 || yieldCol < 0 || tokenCol < 0 {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, header)
	}
	data.HasSplit = splitCol >= 0

	for n, record := range records[1:] {
		row := domain.YieldRecord{Address: record[addressCol]}

		row.Balance, err = decimal.NewFromString(record[tokenCol])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d balance %q", ErrBadRow, n+1, record[tokenCol])
		}
		row.Yield, err = decimal.NewFromString(record[yieldCol])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d yield %q", ErrBadRow, n+1, record[yieldCol])
		}
		if data.HasSplit {
			raw := strings.TrimSuffix(record[splitCol], "%")
			row.Split, err = decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d split %q", ErrBadRow, n+1, record[splitCol])
			}
			row.HasSplit = true
		}
		data.Rows = append(data.Rows, row)
	}
	return data, nil
}

// ReadMetadata parses a companion metadata file. Keys are matched by
// substring so decorated lines still parse; the elapsed time line is
// skipped entirely. Every remaining key must appear exactly once.
func ReadMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata file: %w", err)
	}

	values := make(map[string]decimal.Decimal)
	keys := []string{KeyFiltered, KeyFetched, KeySum, KeyRatio}

	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) == "" || strings.Contains(line, KeyElapsed) {
			continue
		}
		for _, key := range keys {
			if !strings.Contains(line, key) {
				continue
			}
			if _, dup := values[key]; dup {
				break
			}
			text := strings.Replace(line, key, "", 1)
			text = strings.Replace(text, ":", "", 1)
			text = strings.TrimSpace(text)

			value, err := decimal.NewFromString(text)
			if err != nil {
				return nil, fmt.Errorf("%w: %q for %q", ErrBadMetaValue, text, key)
			}
			values[key] = value
			break
		}
	}

	for _, key := range keys {
		if _, ok := values[key]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingKey, key)
		}
	}

	meta := &Metadata{Sum: values[KeySum], Ratio: values[KeyRatio]}
	meta.Filtered, err = toCount(values[KeyFiltered])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyFiltered, err)
	}
	meta.Fetched, err = toCount(values[KeyFetched])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyFetched, err)
	}
	return meta, nil
}

func toCount(d decimal.Decimal) (int, error) {
	if !d.IsInteger() || d.Sign() < 0 {
		return 0, fmt.Errorf("%w: %s", ErrFractionCount, d)
	}
	return int(d.IntPart()), nil
}
