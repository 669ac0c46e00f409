package loader

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lac-dcc/DCC888/pkg/ir"
)

// Env is an ordered list of bindings. In YAML it is written as a mapping
// and may be read from either a mapping or a sequence of {name, value}.
type Env []ir.Binding

// UnmarshalYAML reads the node directly so that duplicate keys survive.
func (e *Env) UnmarshalYAML(node *yaml.Node) error {
	var out Env
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			v, err := scalarValue(val)
			if err != nil {
				return fmt.Errorf("env %q: %w", key.Value, err)
			}
			out = append(out, ir.Binding{Name: key.Value, Value: v})
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			var pair struct {
				Name  string    `yaml:"name"`
				Value yaml.Node `yaml:"value"`
			}
			if err := item.Decode(&pair); err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			if pair.Name == "" {
				return fmt.Errorf("line %d: env binding needs a name", item.Line)
			}
			v, err := scalarValue(&pair.Value)
			if err != nil {
				return fmt.Errorf("env %q: %w", pair.Name, err)
			}
			out = append(out, ir.Binding{Name: pair.Name, Value: v})
		}
	default:
		return fmt.Errorf("line %d: env must be a mapping or a list", node.Line)
	}
	*e = out
	return nil
}

// scalarValue accepts integers and booleans, mapping true to 1.
func scalarValue(n *yaml.Node) (int64, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("line %d: value must be an integer or a boolean", n.Line)
	}
	var i int64
	if err := n.Decode(&i); err == nil {
		return i, nil
	}
	var b bool
	if err := n.Decode(&b); err == nil {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("line %d: %q is neither an integer nor a boolean", n.Line, n.Value)
}

// MarshalYAML writes the bindings as a mapping, in order.
func (e Env) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, b := range e {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: b.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(b.Value)},
		)
	}
	return node, nil
}

// MarshalJSON writes the bindings as a list, since JSON objects lose
// duplicate keys in most readers.
func (e Env) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]ir.Binding(e))
}
