// Package loader parses position CSV files into the ledger.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Stephc02/FinancialTrackingSystem/pkg/models"
)

// expected header, matched case-insensitively
var columns = []string{"instrument_id", "symbol", "quantity", "initial_rate"}

// Inserter is the subset of the ledger the loader needs.
type Inserter interface {
	Insert(p models.Position)
}

// Parse reads the full CSV stream into positions without touching the ledger.
// Any malformed row fails the whole parse, so callers get all-or-nothing
// loads: either every row becomes a position or none do.
func Parse(r io.Reader) ([]models.Position, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var positions []models.Position
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		p, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		positions = append(positions, p)
	}

	return positions, nil
}

// LoadInto parses the stream and, only on full success, inserts every position.
// A parse failure leaves the ledger exactly as it was.
func LoadInto(r io.Reader, dst Inserter) (int, error) {
	positions, err := Parse(r)
	if err != nil {
		return 0, err
	}
	for _, p := range positions {
		dst.Insert(p)
	}
	return len(positions), nil
}

// LoadFile opens path and loads it via LoadInto.
func LoadFile(path string, dst Inserter) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening positions file: %w", err)
	}
	defer f.Close()
	return LoadInto(f, dst)
}

func checkHeader(header []string) error {
	if len(header) != len(columns) {
		return fmt.Errorf("bad header: expected %d columns, got %d", len(columns), len(header))
	}
	for i, want := range columns {
		got := strings.ToLower(strings.TrimSpace(header[i]))
		if got != want {
			return fmt.Errorf("bad header: column %d is %q, want %q", i+1, header[i], want)
		}
	}
	return nil
}

func parseRow(record []string) (models.Position, error) {
	if len(record) != len(columns) {
		return models.Position{}, fmt.Errorf("expected %d fields, got %d", len(columns), len(record))
	}

	instrumentID := strings.TrimSpace(record[0])
	symbol := strings.TrimSpace(record[1])
	if instrumentID == "" {
		return models.Position{}, fmt.Errorf("instrument_id is empty")
	}
	if symbol == "" {
		return models.Position{}, fmt.Errorf("symbol is empty")
	}

	quantity, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil {
		return models.Position{}, fmt.Errorf("bad quantity %q: %w", record[2], err)
	}
	initialRate, err := decimal.NewFromString(strings.TrimSpace(record[3]))
	if err != nil {
		return models.Position{}, fmt.Errorf("bad initial_rate %q: %w", record[3], err)
	}

	return models.NewPosition(instrumentID, symbol, quantity, initialRate), nil
}
