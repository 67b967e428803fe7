package ingest

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// nullField marks an absent value in the dataset dumps.
const nullField = `\N`

// tsvRow gives column access by header name for one dataset line.
type tsvRow struct {
	cols   map[string]int
	fields []string
}

// get returns the named column, or "" when the value is absent.
func (r tsvRow) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	if v := r.fields[i]; v != nullField {
		return v
	}
	return ""
}

// scanTSV streams a gzipped TSV file line by line, resolving columns
// from the header row. The dataset dumps carry no quoting, so a plain
// tab split is exact. Returning false from fn stops the scan early.
func scanTSV(path string, fn func(row tsvRow) bool) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		return fmt.Errorf("%s: empty file", filepath.Base(path))
	}
	header := strings.Split(sc.Text(), "\t")
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}

	for sc.Scan() {
		if !fn(tsvRow{cols: cols, fields: strings.Split(sc.Text(), "\t")}) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	return nil
}

// splitList splits a comma-separated dataset field, dropping empties.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
