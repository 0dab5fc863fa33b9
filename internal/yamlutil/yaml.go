// Package yamlutil decodes and encodes md2img configuration documents.
package yamlutil

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/parser"
)

// MaxInputSize caps the size of a configuration document (1MB).
const MaxInputSize = 1 << 20

var (
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

// DecodeStrict decodes data into v and rejects keys v does not declare.
// A document holding only whitespace or comments decodes to nothing and
// leaves v untouched, so callers can fill in defaults afterwards.
func DecodeStrict(data []byte, v any) error {
	if v == nil {
		return ErrNilDestination
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if isEmptyDocument(data) {
		return nil
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// Encode renders v as YAML.
func Encode(v any) ([]byte, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return out, nil
}

// isEmptyDocument reports whether data has no YAML body. Parse errors are
// left for the decoder to report.
func isEmptyDocument(data []byte) bool {
	if len(bytes.TrimSpace(data)) == 0 {
		return true
	}
	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return false
	}
	for _, doc := range file.Docs {
		if doc != nil && doc.Body != nil {
			return false
		}
	}
	return true
}
