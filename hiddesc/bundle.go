package hiddesc

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// NullCap describes a synthetic null-element report handler — it only
// ever carries a report ID.
type NullCap struct {
	ReportID uint8 `json:"reportID" yaml:"reportID" toml:"reportID"`
}

// InterruptCap describes a synthetic interrupt report handler for raw
// reports whose fields are unknown.
type InterruptCap struct {
	ReportID   uint8  `json:"reportID" yaml:"reportID" toml:"reportID"`
	ReportBits uint32 `json:"reportBits" yaml:"reportBits" toml:"reportBits"`
}

// Node is one descriptor record in tree form. Exactly one of Button, Value,
// Collection, Null, or Interrupt should be set; Children is only
// meaningful on a Collection node and holds its descriptor-order children.
type Node struct {
	Collection *CollectionNode `json:"collection,omitempty" yaml:"collection,omitempty" toml:"collection,omitempty"`
	Button     *ButtonCap      `json:"button,omitempty" yaml:"button,omitempty" toml:"button,omitempty"`
	Value      *ValueCap       `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
	Null       *NullCap        `json:"null,omitempty" yaml:"null,omitempty" toml:"null,omitempty"`
	Interrupt  *InterruptCap   `json:"interrupt,omitempty" yaml:"interrupt,omitempty" toml:"interrupt,omitempty"`
	Children   []Node          `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
}

// Bundle is a complete descriptor, rooted at the implicit top-level
// collection the element tree builder starts from.
type Bundle struct {
	Root Node `json:"root" yaml:"root" toml:"root"`
}

// LoadBundle decodes a Bundle from r using the given format, one of
// "json", "yaml", or "toml".
func LoadBundle(r io.Reader, format string) (Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Bundle{}, fmt.Errorf("read descriptor: %w", err)
	}

	var b Bundle
	switch strings.ToLower(format) {
	case "json":
		err = json.Unmarshal(data, &b)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &b)
	case "toml":
		err = toml.Unmarshal(data, &b)
	default:
		return Bundle{}, fmt.Errorf("unsupported descriptor format: %q", format)
	}
	if err != nil {
		return Bundle{}, fmt.Errorf("decode %s descriptor: %w", format, err)
	}
	return b, nil
}

// FormatFromExt maps a file extension (as returned by filepath.Ext,
// including the leading dot) to a LoadBundle format string.
func FormatFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}
