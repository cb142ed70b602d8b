package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/entigo/record"
)

// readCSV loads a CSV file with a header row into a record collection.
// Record ids come from idColumn when set, otherwise from the 1-based
// data row number.
func readCSV(path, idColumn string) (*record.Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idIdx := -1

	if idColumn != "" {
		for i, name := range header {
			if name == idColumn {
				idIdx = i
				break
			}
		}

		if idIdx < 0 {
			return nil, fmt.Errorf("id column %q not in header %v", idColumn, header)
		}
	}

	var records []record.Record

	for row := 1; ; row++ {
		line, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		fields := make(map[string]string, len(header))
		for i, name := range header {
			fields[name] = line[i]
		}

		id := record.ID(fmt.Sprintf("row_%06d", row))
		if idIdx >= 0 {
			id = record.ID(line[idIdx])
		}

		records = append(records, record.New(id, fields))
	}

	collection, err := record.NewCollection(records...)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", path, err)
	}

	return collection, nil
}
