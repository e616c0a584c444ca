package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// coercerTypesPath locates the field-to-type map in the config document.
// Field names in it are event keys, so they must keep their case and may
// contain dots; viper would lower-case and split them.
var coercerTypesPath = []string{"transforms", "coercer", "types"}

// extractCoercerTypes removes transforms.coercer.types from the YAML
// document in raw and decodes it separately. It returns the remaining
// document and the decoded map, nil when the section is absent.
func extractCoercerTypes(raw []byte) ([]byte, map[string]string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return raw, nil, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return raw, nil, nil
	}

	parent := doc.Content[0]
	for _, key := range coercerTypesPath[:len(coercerTypesPath)-1] {
		_, parent = mappingValue(parent, key)
		if parent == nil {
			return raw, nil, nil
		}
	}

	idx, node := mappingValue(parent, coercerTypesPath[len(coercerTypesPath)-1])
	if node == nil {
		return raw, nil, nil
	}

	types := map[string]string{}
	if node.Kind != yaml.ScalarNode || node.Tag != "!!null" {
		if err := node.Decode(&types); err != nil {
			return nil, nil, fmt.Errorf("failed to decode %s: %w", strings.Join(coercerTypesPath, "."), err)
		}
	}
	for field, name := range types {
		if strings.Contains(name, "${") {
			types[field] = os.ExpandEnv(name)
		}
	}

	parent.Content = append(parent.Content[:idx], parent.Content[idx+2:]...)
	rest, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to re-encode config file: %w", err)
	}
	return rest, types, nil
}

// mappingValue finds key in a mapping node, ignoring case like viper does.
// It returns the index of the key node and the value node.
func mappingValue(node *yaml.Node, key string) (int, *yaml.Node) {
	if node == nil || node.Kind != yaml.MappingNode {
		return -1, nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if strings.EqualFold(node.Content[i].Value, key) {
			return i, node.Content[i+1]
		}
	}
	return -1, nil
}
