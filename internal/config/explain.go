package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Explain returns the effective value at a dotted YAML path, such as
// "reconcile_interval" or "dbus.path", and where it was set. A zero Source
// means the value is a default.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	var node yaml.Node
	if err := node.Encode(res.Config); err != nil {
		return nil, Source{}, fmt.Errorf("failed to encode config: %w", err)
	}
	cur := &node
	for _, part := range strings.Split(path, ".") {
		if cur.Kind == yaml.DocumentNode && len(cur.Content) > 0 {
			cur = cur.Content[0]
		}
		cur = mappingValue(cur, part)
		if cur == nil {
			return nil, Source{}, fmt.Errorf("unknown path: %s", path)
		}
	}

	var value any
	if err := cur.Decode(&value); err != nil {
		return nil, Source{}, fmt.Errorf("%s: %w", path, err)
	}
	return value, res.Sources[path], nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
