package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FileMap maps repository file paths to their full contents. Keys are
// unique; merging only ever adds or overwrites entries, so the map grows
// monotonically across pipeline stages.
type FileMap map[string]string

// UnmarshalJSON decodes a file map strictly: the payload must be a JSON
// object whose values are all strings. Anything else is a data error, not a
// crash, so malformed model output can be routed through the pipeline as a
// failure.
func (m *FileMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFileMap, err)
	}
	out := make(FileMap, len(raw))
	for path, value := range raw {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("%w: empty file path", ErrInvalidFileMap)
		}
		var content string
		if err := json.Unmarshal(value, &content); err != nil {
			return fmt.Errorf("%w: value for %q is not a string", ErrInvalidFileMap, path)
		}
		out[path] = content
	}
	*m = out
	return nil
}

// ParseFileMap decodes a raw model response into a FileMap.
func ParseFileMap(data []byte) (FileMap, error) {
	var m FileMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Clone returns a shallow copy so callers can hand out snapshots without
// sharing the underlying map.
func (m FileMap) Clone() FileMap {
	if m == nil {
		return nil
	}
	out := make(FileMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge returns the union of m and other, with entries from other taking
// precedence. Neither input is mutated.
func (m FileMap) Merge(other FileMap) FileMap {
	if len(other) == 0 {
		return m.Clone()
	}
	out := make(FileMap, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Paths returns the file paths in sorted order for deterministic iteration.
func (m FileMap) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
