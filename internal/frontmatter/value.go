package frontmatter

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "null"
	}
}

// Value is a loosely typed frontmatter value. It is only ever produced by
// decoding; the write path never turns a Value back into text.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	List []Value
	Map  map[string]Value
}

// Interface converts v to plain Go values, suitable for JSON encoding.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.Map))
		for k, item := range v.Map {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// Fields maps top-level frontmatter keys to their decoded values.
type Fields map[string]Value

// String returns the value of key when it holds a string.
func (f Fields) String(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// Interface converts all fields to plain Go values.
func (f Fields) Interface() map[string]any {
	out := make(map[string]any, len(f))
	for k, v := range f {
		out[k] = v.Interface()
	}
	return out
}

func decodeFields(block string) (Fields, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, fmt.Errorf("frontmatter: decode: %w", err)
	}
	if len(doc.Content) == 0 {
		return Fields{}, nil
	}
	root, err := fromNode(doc.Content[0])
	if err != nil {
		return nil, err
	}
	switch root.Kind {
	case KindMap:
		return Fields(root.Map), nil
	case KindNull:
		return Fields{}, nil
	default:
		return nil, fmt.Errorf("frontmatter: decode: block is a %s, not a mapping", root.Kind)
	}
}

func fromNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Value{}, nil
		}
		return fromNode(n.Content[0])
	case yaml.SequenceNode:
		list := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return Value{}, err
			}
			list = append(list, v)
		}
		return Value{Kind: KindList, List: list}, nil
	case yaml.MappingNode:
		m := make(map[string]Value, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromNode(n.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			m[n.Content[i].Value] = v
		}
		return Value{Kind: KindMap, Map: m}, nil
	case yaml.ScalarNode:
		return fromScalar(n)
	}
	return Value{}, nil
}

func fromScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Value{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, fmt.Errorf("frontmatter: decode bool at line %d: %w", n.Line, err)
		}
		return Value{Kind: KindBool, Bool: b}, nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, fmt.Errorf("frontmatter: decode number at line %d: %w", n.Line, err)
		}
		return Value{Kind: KindNumber, Num: f}, nil
	default:
		// Strings, timestamps and anything custom-tagged keep their literal text.
		return Value{Kind: KindString, Str: n.Value}, nil
	}
}
