package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
)

// Archive builds an in-memory zip from a map of relative paths to file
// contents. Entries are written in sorted path order so the same file map
// always produces the same archive bytes.
func Archive(files map[string]string) ([]byte, error) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, p := range paths {
		w, err := zw.Create(p)
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", p, err)
		}
		if _, err := w.Write([]byte(files[p])); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", p, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}
