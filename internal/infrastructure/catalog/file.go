package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/storefront/backend/internal/domain"
)

// FileSource loads catalog snapshots exported to a JSON or YAML file
type FileSource struct {
	path   string
	logger *logrus.Entry
}

// NewFileSource creates a file-backed catalog source
func NewFileSource(path string, logger *logrus.Entry) *FileSource {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &FileSource{path: path, logger: logger}
}

// LoadProducts reads and decodes the snapshot file
func (s *FileSource) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	records, err := decodeSnapshot(data, filepath.Ext(s.path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCatalogUnavailable, s.path, err)
	}

	s.logger.Debugf("[CATALOG] read %d products from %s", len(records), s.path)
	return mapToProducts(records), nil
}

// decodeSnapshot accepts either a bare product array or a {"products": [...]} envelope
func decodeSnapshot(data []byte, ext string) ([]productRecord, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return decodeYAML(data)
	default:
		return decodeJSON(data)
	}
}

func decodeJSON(data []byte) ([]productRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty snapshot")
	}

	if trimmed[0] == '[' {
		var records []productRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to decode products: %w", err)
		}
		return records, nil
	}

	var envelope catalogEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return envelope.Products, nil
}

func decodeYAML(data []byte) ([]productRecord, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("empty snapshot")
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var records []productRecord
		if err := root.Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode products: %w", err)
		}
		return records, nil
	}

	var envelope catalogEnvelope
	if err := root.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return envelope.Products, nil
}
