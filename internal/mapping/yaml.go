package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// tableDoc is the on-disk YAML shape of a mapping table.
type tableDoc struct {
	Mappings []APIMapping `yaml:"mappings"`
}

// LoadYAML reads a mapping table document and validates every row. The
// result feeds NewResolver, which additionally enforces uniqueness.
func LoadYAML(path string) ([]APIMapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping table: %w", err)
	}
	return ParseYAML(raw)
}

// ParseYAML decodes a mapping table from YAML bytes.
func ParseYAML(raw []byte) ([]APIMapping, error) {
	var doc tableDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode mapping table: %w", err)
	}
	for _, m := range doc.Mappings {
		if err := m.Validate(); err != nil {
			return nil, err
		}
	}
	return doc.Mappings, nil
}
