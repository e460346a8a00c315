// Package groups manages the group directory: who belongs to which group,
// which spreadsheet backs it, and the invite and authorisation codes that
// gate access. The whole directory persists as one YAML document.
package groups

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"vbaranov/ledgerbot/internal/logging"
	"vbaranov/ledgerbot/internal/models"
)

// Storage reads and writes the group document as a single YAML file.
type Storage struct {
	path string
	log  logging.Logger
}

// NewStorage creates a storage bound to the given file path.
func NewStorage(path string, logger logging.Logger) *Storage {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Storage{path: path, log: logger}
}

// Load reads the document from disk. A missing or unparseable file yields an
// empty document rather than an error: the directory must stay usable even
// after the file is corrupted, at the cost of starting over.
func (s *Storage) Load() (*models.GroupDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewGroupDocument(), nil
		}
		return nil, fmt.Errorf("reading group directory %s: %w", s.path, err)
	}

	doc := &models.GroupDocument{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		s.log.WithError(err).WithField(logging.FieldReason, "corrupt document").
			Warn("Group directory unreadable, starting from an empty document")
		return models.NewGroupDocument(), nil
	}
	doc.Normalize()
	return doc, nil
}

// Save writes the document back to disk, creating parent directories as
// needed.
func (s *Storage) Save(doc *models.GroupDocument) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", s.path, err)
		}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding group directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing group directory %s: %w", s.path, err)
	}
	return nil
}
