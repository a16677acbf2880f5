package record

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML implements yaml.Unmarshaler. Scalars keep their source text:
// 1.0 stays Number("1.0") and a timestamp stays the string it was written as.
func (obj *Object) UnmarshalYAML(node *yaml.Node) error {
	v, err := FromYAML(node)
	if err != nil {
		return err
	}
	if _, isNull := v.(Null); isNull {
		return nil
	}
	o, ok := v.(Object)
	if !ok {
		return fmt.Errorf("line %d: payload must be a mapping, got %s", node.Line, kindName(v))
	}
	*obj = o
	return nil
}

// FromYAML converts a YAML node into a payload value.
//
// Decimal numbers become Int or Number from their literal. Floats with no
// JSON spelling (.inf, .nan) and every other scalar tag (timestamps, binary)
// become String with the literal text.
func FromYAML(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null{}, nil
		}
		return FromYAML(node.Content[0])
	case yaml.AliasNode:
		return FromYAML(node.Alias)
	case yaml.SequenceNode:
		arr := make(Array, len(node.Content))
		for i, child := range node.Content {
			v, err := FromYAML(child)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = v
		}
		return arr, nil
	case yaml.MappingNode:
		obj := make(Object, len(node.Content)/2)
		if err := mergeMapping(obj, node); err != nil {
			return nil, err
		}
		return obj, nil
	case yaml.ScalarNode:
		return scalarFromYAML(node)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", node.Line)
}

// mergeMapping copies node's pairs into obj. Keys set directly win over
// keys pulled in through a << merge.
func mergeMapping(obj Object, node *yaml.Node) error {
	var merges []*yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.ShortTag() == "!!merge" {
			merges = append(merges, val)
			continue
		}
		v, err := FromYAML(val)
		if err != nil {
			return fmt.Errorf("object[%q]: %w", key.Value, err)
		}
		obj[key.Value] = v
	}

	for _, m := range merges {
		if m.Kind == yaml.AliasNode {
			m = m.Alias
		}
		sources := []*yaml.Node{m}
		if m.Kind == yaml.SequenceNode {
			sources = m.Content
		}
		for _, src := range sources {
			if src.Kind == yaml.AliasNode {
				src = src.Alias
			}
			if src.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: merge value must be a mapping", src.Line)
			}
			merged := make(Object)
			if err := mergeMapping(merged, src); err != nil {
				return err
			}
			for k, v := range merged {
				if _, set := obj[k]; !set {
					obj[k] = v
				}
			}
		}
	}
	return nil
}

func scalarFromYAML(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Null{}, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case "!!int":
		if isNumberLiteral(node.Value) {
			return numberFromLiteral(node.Value)
		}
		// 0x1F, 0o17 and friends.
		var n int64
		if err := node.Decode(&n); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return Int(n), nil
	case "!!float":
		if isNumberLiteral(node.Value) {
			return numberFromLiteral(node.Value)
		}
		return String(node.Value), nil
	default:
		return String(node.Value), nil
	}
}
