package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"plotmodel/pkg/config"
	"plotmodel/pkg/dataset"
	"plotmodel/pkg/trace"
)

// table is a set of equal length named columns
type table struct {
	names   []string
	columns [][]float64
}

func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
}

// readTable parses comma or whitespace separated columns. Blank lines and
// lines starting with '#' are skipped. A first row that does not parse as
// numbers names the columns.
func readTable(r io.Reader) (*table, error) {
	t := &table{}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitFields(line)
		row := make([]float64, len(fields))
		numeric := true
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				numeric = false
				break
			}
			row[i] = v
		}

		if t.columns == nil {
			t.columns = make([][]float64, len(fields))
			if !numeric {
				t.names = fields
				continue
			}
			for i := range fields {
				t.names = append(t.names, fmt.Sprintf("col%d", i+1))
			}
		}
		if !numeric {
			return nil, fmt.Errorf("line %d: not a numeric row: %q", lineNo, line)
		}
		if len(row) != len(t.columns) {
			return nil, fmt.Errorf("line %d: have %d columns, want %d", lineNo, len(row), len(t.columns))
		}
		for i, v := range row {
			t.columns[i] = append(t.columns[i], v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(t.columns) == 0 || len(t.columns[0]) == 0 {
		return nil, fmt.Errorf("no data rows")
	}
	return t, nil
}

// curve picks the x and y columns by the configured name patterns. Without
// a match x is the first of two or more columns and y the one after it. A
// single column is plotted against its indices.
func (t *table) curve(cfg *config.Config) (x, y *dataset.Array, err error) {
	xi, yi := -1, -1
	for i, name := range t.names {
		if xi < 0 && cfg.IsXDataset(name) {
			xi = i
		}
	}
	for i, name := range t.names {
		if i != xi && yi < 0 && cfg.IsYDataset(name) {
			yi = i
		}
	}
	switch {
	case len(t.columns) == 1:
		xi, yi = -1, 0
	case xi < 0 && yi < 0:
		xi, yi = 0, 1
	case yi < 0:
		yi = (xi + 1) % len(t.columns)
	case xi < 0:
		xi = 0
		if yi == 0 {
			xi = 1
		}
	}

	y, err = dataset.FromValues(t.names[yi], t.columns[yi], len(t.columns[yi]))
	if err != nil {
		return nil, nil, err
	}
	if xi >= 0 {
		x, err = dataset.FromValues(t.names[xi], t.columns[xi], len(t.columns[xi]))
		if err != nil {
			return nil, nil, err
		}
	}
	return x, y, nil
}

// writeTraces prints the x of the first trace followed by every trace's y,
// one row per point
func writeTraces(w io.Writer, traces []*trace.Trace) error {
	var lines []trace.LineData
	names := []string{"x"}
	for _, t := range traces {
		if l, ok := t.Line(); ok {
			lines = append(lines, l)
			names = append(names, t.Name)
		}
	}
	if len(lines) == 0 {
		return fmt.Errorf("nothing to write")
	}
	names[0] = lines[0].X.Name()

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n", strings.Join(names, "\t"))
	n := lines[0].X.Size()
	row := make([]string, len(names))
	for i := 0; i < n; i++ {
		row[0] = strconv.FormatFloat(lines[0].X.Flat(i), 'g', 8, 64)
		for j, l := range lines {
			if i < l.Y.Size() {
				row[j+1] = strconv.FormatFloat(l.Y.Flat(i), 'g', 8, 64)
			} else {
				row[j+1] = "nan"
			}
		}
		fmt.Fprintln(bw, strings.Join(row, "\t"))
	}
	return bw.Flush()
}
