package loader

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eidetic/internal/payload"
)

func decodeYAML(path string, data []byte) (payload.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Path: path, Message: err.Error(), Err: err}
	}
	// An empty document decodes to a zero node.
	if doc.Kind == 0 {
		return payload.NewObject(), nil
	}
	return yamlValue(path, &doc)
}

// FromYAMLNode converts a decoded YAML node into a Value, keeping mapping
// order. Errors carry the node's line but no path.
func FromYAMLNode(n *yaml.Node) (payload.Value, error) {
	return yamlValue("", n)
}

// yamlValue converts a node tree, keeping mapping order.
func yamlValue(path string, n *yaml.Node) (payload.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return payload.NewObject(), nil
		}
		return yamlValue(path, n.Content[0])

	case yaml.AliasNode:
		return yamlValue(path, n.Alias)

	case yaml.SequenceNode:
		arr := make(payload.Array, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := yamlValue(path, item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil

	case yaml.MappingNode:
		var obj payload.Object
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if key.Kind != yaml.ScalarNode || key.Tag == "!!merge" {
				return nil, yamlError(path, key, ErrCodeUnsupported, "mapping keys must be plain scalars")
			}
			name, err := yamlString(path, key)
			if err != nil {
				return nil, err
			}
			if _, dup := obj.Get(string(name)); dup {
				return nil, yamlError(path, key, ErrCodeParse, fmt.Sprintf("duplicate key %q after normalization", name))
			}
			v, err := yamlValue(path, val)
			if err != nil {
				return nil, err
			}
			obj = obj.Set(string(name), v)
		}
		return obj, nil

	case yaml.ScalarNode:
		return yamlScalar(path, n)
	}
	return nil, yamlError(path, n, ErrCodeParse, fmt.Sprintf("unexpected node kind %d", n.Kind))
}

func yamlScalar(path string, n *yaml.Node) (payload.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return payload.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, yamlError(path, n, ErrCodeParse, err.Error())
		}
		return payload.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, yamlError(path, n, ErrCodeUnsupported, "integer out of range: "+n.Value)
		}
		return payload.Int(i), nil
	case "!!float":
		return nil, yamlError(path, n, ErrCodeUnsupported, payload.ErrFloat.Error()+": "+n.Value)
	case "!!str":
		return yamlString(path, n)
	}
	return nil, yamlError(path, n, ErrCodeUnsupported, "unsupported tag "+strconv.Quote(n.Tag))
}

// yamlString returns the scalar's text in NFC form.
func yamlString(path string, n *yaml.Node) (payload.String, error) {
	s, err := payload.NewString(n.Value)
	if err != nil {
		return "", yamlError(path, n, ErrCodeUnsupported, err.Error())
	}
	return s, nil
}

func yamlError(path string, n *yaml.Node, code, msg string) *LoadError {
	return &LoadError{Code: code, Path: path, Line: n.Line, Message: msg}
}
