package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// table is a CSV file addressed by header name.
type table struct {
	index  map[string]int
	header []string
	rows   [][]string
}

// readTable reads every record of r. An input without a header row is ErrNoColumns.
func readTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, err
	}

	t := &table{index: make(map[string]int, len(header))}
	for i, col := range header {
		col = strings.TrimSpace(col)
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		t.header = append(t.header, col)
		if _, dup := t.index[col]; !dup {
			t.index[col] = i
		}
	}

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) > len(t.header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(t.header), len(rec))
		}
		if blank(rec) {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func (t *table) has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// missing returns the columns of want absent from the header, in want order.
func (t *table) missing(want []string) []string {
	var out []string
	for _, col := range want {
		if !t.has(col) {
			out = append(out, col)
		}
	}
	return out
}

// str returns the trimmed value of col in row, or "" when absent.
func (t *table) str(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// first returns the value of the first present column among cols.
func (t *table) first(row []string, cols ...string) string {
	for _, col := range cols {
		if t.has(col) {
			return t.str(row, col)
		}
	}
	return ""
}

// float parses col in row. Blank or NaN cells are reported as not set.
func (t *table) float(row []string, col string) (float64, bool, error) {
	s := t.str(row, col)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s %q is not a number", col, s)
	}
	return v, true, nil
}
