package config

import (
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// checkNode rejects scalars whose YAML type does not match the Policy field
// they decode into. yaml.v3 turns 3.11 into the string "3.11" on its own, so
// string fields must be written as strings. Null values and unknown keys pass;
// defaults and Validate deal with them.
func checkNode(n *yaml.Node, t reflect.Type, field string) error {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.ShortTag() == "!!null" {
		return nil
	}

	switch t.Kind() {
	case reflect.Struct:
		if n.Kind != yaml.MappingNode {
			return mismatch(n, field, "mapping")
		}
		fields := yamlFields(t)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			ft, ok := fields[key]
			if !ok {
				continue
			}
			if err := checkNode(n.Content[i+1], ft, join(field, key)); err != nil {
				return err
			}
		}
	case reflect.Map:
		if n.Kind != yaml.MappingNode {
			return mismatch(n, field, "mapping")
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			if err := checkNode(n.Content[i+1], t.Elem(), join(field, n.Content[i].Value)); err != nil {
				return err
			}
		}
	case reflect.Slice:
		if n.Kind != yaml.SequenceNode {
			return mismatch(n, field, "list")
		}
		for i, item := range n.Content {
			if err := checkNode(item, t.Elem(), fmt.Sprintf("%s[%d]", field, i)); err != nil {
				return err
			}
		}
	case reflect.String:
		return expectScalar(n, field, "!!str", "string")
	case reflect.Int, reflect.Int64, reflect.Int32:
		return expectScalar(n, field, "!!int", "integer")
	case reflect.Bool:
		return expectScalar(n, field, "!!bool", "boolean")
	}
	return nil
}

func expectScalar(n *yaml.Node, field, tag, want string) error {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != tag {
		return mismatch(n, field, want)
	}
	return nil
}

func mismatch(n *yaml.Node, field, want string) error {
	got := n.ShortTag()
	switch n.Kind {
	case yaml.MappingNode:
		got = "mapping"
	case yaml.SequenceNode:
		got = "list"
	}
	return fieldErr(field, "line %d: expected %s, got %s %q", n.Line, want, strings.TrimPrefix(got, "!!"), n.Value)
}

// yamlFields maps yaml keys to field types for the exported fields of t.
func yamlFields(t reflect.Type) map[string]reflect.Type {
	out := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = strings.ToLower(f.Name)
		}
		out[name] = f.Type
	}
	return out
}

func join(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
