package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"advpal/internal/story"
)

// Limits on alias expansion in YAML uploads.
const (
	// MaxAliasNodes is the number of nodes that may be emitted through
	// aliases in one document.
	MaxAliasNodes = 10000

	// MaxConvertedBytes bounds the JSON produced from one YAML document.
	MaxConvertedBytes = 8 << 20
)

var (
	// ErrAliasCycle is returned for a YAML alias that refers to a node
	// containing it.
	ErrAliasCycle = errors.New("YAML alias refers to itself")

	// ErrAliasExpansion is returned when aliases expand past
	// [MaxAliasNodes] or the output grows past [MaxConvertedBytes].
	ErrAliasExpansion = errors.New("YAML document expands too far")
)

// ParseUpload validates a freshly uploaded story document.
//
// The name is the attachment or file name; names ending in .yaml or .yml are
// read as YAML, everything else as JSON. Position fields present in the
// upload are ignored: the caller enters the returned document at its start.
func ParseUpload(data []byte, name string, opts ...story.ValidateOption) (*story.Document, error) {
	if IsYAML(name) {
		converted, err := YAMLToJSON(data)
		if err != nil {
			return nil, &story.SchemaError{Field: "document", Reason: err.Error()}
		}
		data = converted
	}
	return story.Validate(data, opts...)
}

// IsYAML reports whether name has a YAML file extension.
func IsYAML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// YAMLToJSON converts a YAML document to JSON, keeping mapping order so
// option order survives the conversion.
//
// Aliases are expanded in place. A document whose aliases form a cycle
// fails with [ErrAliasCycle]; one that expands beyond the package limits
// fails with [ErrAliasExpansion].
func YAMLToJSON(data []byte) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("empty YAML document")
	}

	c := converter{visiting: make(map[*yaml.Node]bool)}
	if err := c.write(root.Content[0]); err != nil {
		return nil, err
	}
	return c.buf.Bytes(), nil
}

// converter writes a yaml.Node tree as JSON.
type converter struct {
	buf      bytes.Buffer
	visiting map[*yaml.Node]bool

	// aliasDepth is non-zero while writing the target of an alias.
	aliasDepth int
	aliasNodes int
}

func (c *converter) write(n *yaml.Node) error {
	if c.aliasDepth > 0 {
		c.aliasNodes++
		if c.aliasNodes > MaxAliasNodes {
			return fmt.Errorf("line %d: %w", n.Line, ErrAliasExpansion)
		}
	}
	if c.buf.Len() > MaxConvertedBytes {
		return fmt.Errorf("line %d: %w", n.Line, ErrAliasExpansion)
	}
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		c.visiting[n] = true
		defer delete(c.visiting, n)
	}

	buf := &c.buf
	switch n.Kind {
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			if key.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeScalar(buf, key.Value); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := c.write(value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := c.write(item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.AliasNode:
		if n.Alias == nil || c.visiting[n.Alias] {
			return fmt.Errorf("line %d: %w", n.Line, ErrAliasCycle)
		}
		c.aliasDepth++
		defer func() { c.aliasDepth-- }()
		return c.write(n.Alias)
	case yaml.ScalarNode:
		return writeTypedScalar(buf, n)
	default:
		return fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
	return nil
}

func writeTypedScalar(buf *bytes.Buffer, n *yaml.Node) error {
	var v any
	switch n.ShortTag() {
	case "!!null":
		buf.WriteString("null")
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		v = b
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return err
		}
		v = i
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return err
		}
		v = f
	default:
		v = n.Value
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	buf.Write(data)
	return nil
}

func writeScalar(buf *bytes.Buffer, s string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}
