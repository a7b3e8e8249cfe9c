// Package dataset reads the client and price CSV files shipped with the model
// package and joins them into prediction-ready rows.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/churn/internal/domain/table"
	"github.com/okian/churn/internal/modelconfig"
)

// Dataset is the joined client and price data.
type Dataset struct {
	// Table holds one record per client row, in file order, without the id
	// and target columns.
	Table table.Table
	// IDs holds the client id of each record.
	IDs []string
	// Targets holds the known label of each record, or nil when absent.
	Targets []*int
}

// Len returns the number of records.
func (d Dataset) Len() int { return d.Table.Len() }

// Slice returns records [from, to) as a new dataset sharing the records.
func (d Dataset) Slice(from, to int) Dataset {
	return Dataset{
		Table:   table.New(d.Table.Columns, d.Table.Records[from:to]),
		IDs:     d.IDs[from:to],
		Targets: d.Targets[from:to],
	}
}

type loader struct {
	idColumn   string
	dateColumn string
	target     string
}

// FromModelPackage loads the datasets named by cfg from the package directory.
func FromModelPackage(ctx context.Context, dir string, cfg *modelconfig.Config) (Dataset, error) {
	client, price := cfg.DatasetPaths(dir)
	return Load(ctx, client, price, WithTarget(cfg.Model.Target))
}

// Load reads the client file and joins each client row with the latest price
// row for the same id. Empty cells become nil; numeric cells become int64 or
// float64. Clients without price rows keep nil price columns.
func Load(ctx context.Context, clientPath, pricePath string, opts ...Option) (Dataset, error) {
	l := &loader{idColumn: "id", dateColumn: "price_date", target: "churn"}
	for _, opt := range opts {
		opt(l)
	}

	clientHeader, clientRows, err := readCSV(ctx, clientPath)
	if err != nil {
		return Dataset{}, err
	}
	priceHeader, priceRows, err := readCSV(ctx, pricePath)
	if err != nil {
		return Dataset{}, err
	}

	clientID, ok := indexOf(clientHeader, l.idColumn)
	if !ok {
		return Dataset{}, fmt.Errorf("%w: %s: no %q column", ErrInvalid, clientPath, l.idColumn)
	}
	priceID, ok := indexOf(priceHeader, l.idColumn)
	if !ok {
		return Dataset{}, fmt.Errorf("%w: %s: no %q column", ErrInvalid, pricePath, l.idColumn)
	}
	priceDate, hasDate := indexOf(priceHeader, l.dateColumn)
	targetIdx, hasTarget := indexOf(clientHeader, l.target)

	latest := make(map[string][]string, len(priceRows))
	for _, row := range priceRows {
		id := row[priceID]
		prev, seen := latest[id]
		// ISO dates order lexically; without a date column the last row wins.
		if !seen || !hasDate || row[priceDate] >= prev[priceDate] {
			latest[id] = row
		}
	}

	var columns []string
	for i, name := range clientHeader {
		if i == clientID || (hasTarget && i == targetIdx) {
			continue
		}
		columns = append(columns, name)
	}
	var priceCols []int
	for i, name := range priceHeader {
		if i == priceID || (hasDate && i == priceDate) || slices.Contains(columns, name) {
			continue
		}
		columns = append(columns, name)
		priceCols = append(priceCols, i)
	}

	ds := Dataset{
		IDs:     make([]string, 0, len(clientRows)),
		Targets: make([]*int, 0, len(clientRows)),
	}
	records := make([]table.Record, 0, len(clientRows))
	for n, row := range clientRows {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		rec := make(table.Record, len(columns))
		for i, name := range clientHeader {
			if i == clientID || (hasTarget && i == targetIdx) {
				continue
			}
			rec[name] = parseCell(row[i])
		}
		price := latest[row[clientID]]
		for _, i := range priceCols {
			if price == nil {
				rec[priceHeader[i]] = nil
				continue
			}
			rec[priceHeader[i]] = parseCell(price[i])
		}

		var target *int
		if hasTarget && strings.TrimSpace(row[targetIdx]) != "" {
			v, err := strconv.Atoi(strings.TrimSpace(row[targetIdx]))
			if err != nil {
				return Dataset{}, fmt.Errorf("%w: %s row %d: %s %q", ErrInvalid, clientPath, n+2, l.target, row[targetIdx])
			}
			target = &v
		}

		records = append(records, rec)
		ds.IDs = append(ds.IDs, row[clientID])
		ds.Targets = append(ds.Targets, target)
	}
	ds.Table = table.New(columns, records)
	return ds, nil
}

func readCSV(ctx context.Context, path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, nil, fmt.Errorf("dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: header: %w", ErrInvalid, path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// parseCell maps an empty or NaN cell to nil and numeric text to a number.
func parseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	}
	return s
}

func indexOf(header []string, name string) (int, bool) {
	i := slices.Index(header, name)
	return i, i >= 0
}
