package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pricepipe/models"
)

// ErrNoInputFiles is returned when the input pattern matches nothing.
var ErrNoInputFiles = errors.New("no input files matched")

// FindInputFiles expands pattern and returns the matches in lexical order.
func FindInputFiles(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("csv: bad input pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInputFiles, pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

// ReadRawRows reads a CSV file with a header row. Each row is returned keyed
// by the file's own header names; short rows leave trailing columns absent.
func ReadRawRows(path string) ([]models.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header of %q: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	source := filepath.Base(path)
	var rows []models.RawRow
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read %q line %d: %w", path, line, err)
		}

		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				fields[name] = record[i]
			}
		}
		rows = append(rows, models.RawRow{SourceFile: source, Line: line, Fields: fields})
	}
	return rows, nil
}

// ReadAllRawRows concatenates the rows of every file in order.
func ReadAllRawRows(paths []string) ([]models.RawRow, error) {
	var all []models.RawRow
	for _, p := range paths {
		rows, err := ReadRawRows(p)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	return all, nil
}
