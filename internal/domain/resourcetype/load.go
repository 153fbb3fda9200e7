package resourcetype

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/propdex/internal/domain/property"
	"github.com/kailas-cloud/propdex/internal/domain/value"
)

// File is the YAML layout of a resource type configuration.
type File struct {
	Namespaces []NamespaceSpec `yaml:"namespaces"`
	Types      []TypeSpec      `yaml:"types"`
}

// NamespaceSpec declares a namespace.
type NamespaceSpec struct {
	Prefix string `yaml:"prefix"`
	URI    string `yaml:"uri"`
}

// TypeSpec declares a resource type.
type TypeSpec struct {
	Name       string         `yaml:"name"`
	Parent     string         `yaml:"parent"`
	Properties []PropertySpec `yaml:"properties"`
}

// PropertySpec declares a property definition.
type PropertySpec struct {
	Namespace      string            `yaml:"namespace"`
	Name           string            `yaml:"name"`
	Type           string            `yaml:"type"` // default: string
	Multiple       bool              `yaml:"multiple"`
	Inheritable    bool              `yaml:"inheritable"`
	JSONAttributes map[string]string `yaml:"json_attributes"`
}

// LoadFile reads a YAML type configuration and builds a Tree.
func LoadFile(path string) (*Tree, error) {
	types, namespaces, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewTree(types, namespaces)
}

// ReadFile reads a YAML type configuration. Use it with Tree.Reload.
func ReadFile(path string) ([]Type, []property.Namespace, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read types %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML type configuration.
func Parse(data []byte) ([]Type, []property.Namespace, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("failed to parse types: %w", err)
	}

	namespaces := make([]property.Namespace, 0, len(f.Namespaces))
	byPrefix := make(map[string]property.Namespace, len(f.Namespaces))
	for _, ns := range f.Namespaces {
		n := property.Namespace{Prefix: ns.Prefix, URI: ns.URI}
		namespaces = append(namespaces, n)
		byPrefix[ns.Prefix] = n
	}

	types := make([]Type, 0, len(f.Types))
	for _, ts := range f.Types {
		rt := Type{Name: ts.Name, Parent: ts.Parent}
		for _, ps := range ts.Properties {
			def, err := ps.definition(byPrefix)
			if err != nil {
				return nil, nil, fmt.Errorf("type %q: %w", ts.Name, err)
			}
			rt.Properties = append(rt.Properties, def)
		}
		types = append(types, rt)
	}
	return types, namespaces, nil
}

func (ps PropertySpec) definition(namespaces map[string]property.Namespace) (*property.Definition, error) {
	ns := property.DefaultNamespace
	if ps.Namespace != "" {
		n, ok := namespaces[ps.Namespace]
		if !ok {
			n = property.Namespace{Prefix: ps.Namespace}
		}
		ns = n
	}

	typ := value.TypeString
	if ps.Type != "" {
		t, err := value.ParseType(ps.Type)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", ps.Name, err)
		}
		typ = t
	}

	var opts []property.Option
	if ps.Multiple {
		opts = append(opts, property.Multiple())
	}
	if ps.Inheritable {
		opts = append(opts, property.Inheritable())
	}
	for spec, tname := range ps.JSONAttributes {
		at, err := value.ParseType(tname)
		if err != nil {
			return nil, fmt.Errorf("property %q: attribute %q: %w", ps.Name, spec, err)
		}
		opts = append(opts, property.WithJSONAttribute(spec, at))
	}
	return property.NewDefinition(ns, ps.Name, typ, opts...)
}
