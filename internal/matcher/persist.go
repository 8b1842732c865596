package matcher

import (
	"github.com/logsift/logsift/internal/catalog"
)

// SaveBinary writes the current catalog to a binary file.
func (m *LogMatcher) SaveBinary(path string) error {
	return catalog.SaveBinary(path, m.registry.Load())
}

// LoadBinary reads a binary catalog and atomically replaces the matcher's
// catalog with it. On error the current catalog is untouched.
func (m *LogMatcher) LoadBinary(path string) error {
	reg, err := catalog.LoadBinary(path, m.cfg)
	if err != nil {
		return err
	}
	m.ReplaceRegistry(reg)
	return nil
}

// SaveReadable writes the current catalog to a human-readable JSON file.
func (m *LogMatcher) SaveReadable(path string) error {
	return catalog.SaveReadable(path, m.registry.Load())
}

// LoadReadable reads a JSON catalog and atomically replaces the matcher's
// catalog with it. On error the current catalog is untouched.
func (m *LogMatcher) LoadReadable(path string) error {
	reg, err := catalog.LoadReadable(path, m.cfg)
	if err != nil {
		return err
	}
	m.ReplaceRegistry(reg)
	return nil
}
