package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/lac-dcc/DCC888/pkg/ir"
)

// Format is a document encoding.
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat converts s to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMsgpack, "mp":
		return FormatMsgpack, nil
	}
	return "", fmt.Errorf("unknown format %q (must be 'yaml', 'json' or 'msgpack')", s)
}

// FormatOf guesses the format of path from its extension. Unknown
// extensions are read as YAML, which also covers JSON.
func FormatOf(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatYAML
}

// Parse decodes a document. JSON input is read by the YAML decoder, so
// duplicate environment keys keep their order in both formats.
func Parse(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatMsgpack:
		if err := msgpack.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: decode msgpack: %v", ir.ErrMalformedProgram, err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", ir.ErrMalformedProgram, format, err)
		}
	}
	return &doc, nil
}

// Read decodes a document from r.
func Read(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Parse(data, format)
}

// LoadFile reads the document at path, picking the format from its
// extension.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Load reads a program and its environment from path in one step.
func Load(path string) (*ir.Program, *ir.Env, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	prog, err := doc.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, doc.Environment(), nil
}

// Encode writes v in the given format. v is usually a *Document but any
// value with the matching struct tags works.
func Encode(w io.Writer, v interface{}, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(v)
	}
	return fmt.Errorf("unknown format %q", format)
}

// Marshal is Encode into a byte slice.
func Marshal(v interface{}, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
