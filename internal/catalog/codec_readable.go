package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/logsift/logsift/internal/config"
)

// readableFormatVersion is the schema version of the JSON catalog form.
const readableFormatVersion = 1

// readableCatalog is the JSON serialization of a catalog. It carries the
// same records as the binary form plus an advisory next_template_id hint
// for allocators.
type readableCatalog struct {
	// Version is the schema version (start with 1)
	Version int `json:"version"`

	// NextTemplateID seeds the allocator for subsequent auto-assigned ids.
	// Present non-zero template ids are authoritative regardless.
	NextTemplateID uint64 `json:"next_template_id"`

	// Templates is the full record list
	Templates []Template `json:"templates"`
}

// SaveReadable writes the registry's templates as an indented JSON document
// for human inspection and hand editing. Semantics are equivalent to the
// binary form. The write is atomic (temp file + rename).
func SaveReadable(path string, r *Registry) error {
	doc := readableCatalog{
		Version:        readableFormatVersion,
		NextTemplateID: r.nextTemplateID(),
		Templates:      r.AllTemplates(),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	data = append(data, '\n')

	return writeFileAtomic(path, data)
}

// LoadReadable reads a JSON catalog into a fresh registry built with the
// given configuration. Ids present and non-zero are honored verbatim; the
// next_template_id hint seeds the allocator. The call either returns a
// fully populated registry or an error with no partial state.
func LoadReadable(path string, cfg config.MatcherConfig) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var doc readableCatalog
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	if doc.Version != readableFormatVersion {
		return nil, fmt.Errorf("unsupported catalog version: %d", doc.Version)
	}

	reg := NewRegistry(cfg)
	reg.AddBatch(doc.Templates)
	reg.SeedNextID(doc.NextTemplateID)
	return reg, nil
}
