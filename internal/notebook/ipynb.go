package notebook

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type ipynbFile struct {
	NBFormat int         `json:"nbformat"`
	Cells    []ipynbCell `json:"cells"`
}

type ipynbCell struct {
	ID       string          `json:"id"`
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

// LoadIPYNB reads the cells of an nbformat 4 notebook file.
func LoadIPYNB(path string) ([]CellSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read notebook %s: %w", path, err)
	}
	specs, err := ParseIPYNB(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notebook %s: %w", path, err)
	}
	return specs, nil
}

// ParseIPYNB decodes notebook JSON into cell specs. Cells without an id
// (nbformat < 4.5) are named "cell-<n>" after their position. Markdown and raw
// cells have no output section.
func ParseIPYNB(data []byte) ([]CellSpec, error) {
	var file ipynbFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if file.NBFormat != 0 && file.NBFormat < 4 {
		return nil, fmt.Errorf("unsupported nbformat %d", file.NBFormat)
	}

	specs := make([]CellSpec, 0, len(file.Cells))
	seen := make(map[string]struct{}, len(file.Cells))
	for i, c := range file.Cells {
		source, err := decodeSource(c.Source)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}

		id := c.ID
		if id == "" {
			id = fmt.Sprintf("cell-%d", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("cell %d: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}

		kind := Kind(c.CellType)
		switch kind {
		case KindCode, KindMarkdown, KindRaw:
		default:
			return nil, fmt.Errorf("cell %d: unknown cell_type %q", i, c.CellType)
		}

		specs = append(specs, CellSpec{
			ID:       id,
			Kind:     kind,
			Source:   source,
			NoOutput: kind != KindCode,
		})
	}
	return specs, nil
}

// decodeSource accepts both encodings nbformat allows: a single string or a
// list of lines.
func decodeSource(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return "", fmt.Errorf("source must be a string or a list of strings")
	}
	return strings.Join(lines, ""), nil
}
