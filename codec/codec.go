// Package codec centralizes encoding of structured side data: latent
// transform parameters and engine configuration files.
//
// Binary artifacts (containers, codebooks) never go through a Codec; they use
// fixed little-endian layouts. A Codec is only used for human-editable or
// externally produced inputs.
package codec

import (
	"path/filepath"
	"strings"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "yaml":
		return YAML{}, true
	default:
		return nil, false
	}
}

// ForPath picks a codec from a file extension: .yaml and .yml select YAML,
// everything else the Default JSON codec.
func ForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML{}
	default:
		return Default
	}
}
