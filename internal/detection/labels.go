package detection

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LabelMap maps class indexes to names. It is immutable once built.
type LabelMap struct {
	names map[int]string
}

// NewLabelMap copies names into a LabelMap.
func NewLabelMap(names map[int]string) LabelMap {
	m := make(map[int]string, len(names))
	for k, v := range names {
		m[k] = v
	}
	return LabelMap{names: m}
}

// LabelMapFromList builds a LabelMap where the class index is the list position.
func LabelMapFromList(names []string) LabelMap {
	m := make(map[int]string, len(names))
	for i, n := range names {
		m[i] = n
	}
	return LabelMap{names: m}
}

// Lookup resolves a class index.
func (m LabelMap) Lookup(class int) (string, error) {
	name, ok := m.names[class]
	if !ok || name == "" {
		return "", fmt.Errorf("class index %d not in label map (%d names)", class, len(m.names))
	}
	return name, nil
}

// Len returns the number of classes.
func (m LabelMap) Len() int { return len(m.names) }

// Classes returns the known class indexes in ascending order.
func (m LabelMap) Classes() []int {
	out := make([]int, 0, len(m.names))
	for k := range m.names {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// Merge returns a new map with other's entries layered over m's.
func (m LabelMap) Merge(other LabelMap) LabelMap {
	out := NewLabelMap(m.names)
	for k, v := range other.names {
		out.names[k] = v
	}
	return out
}

// labelFile is the layout of a YOLO data.yaml; only names is read.
type labelFile struct {
	Names yaml.Node `yaml:"names"`
}

// ParseLabelMap parses a YAML (or JSON) document whose names key is either a
// list of class names or a mapping of index to name. A document that is just
// a bare list is accepted too.
func ParseLabelMap(data []byte) (LabelMap, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return LabelMap{}, fmt.Errorf("failed to parse label map: %w", err)
	}
	if len(root.Content) == 0 {
		return LabelMap{}, fmt.Errorf("label map is empty")
	}

	node := root.Content[0]
	if node.Kind == yaml.MappingNode {
		var f labelFile
		if err := node.Decode(&f); err != nil {
			return LabelMap{}, fmt.Errorf("failed to parse label map: %w", err)
		}
		if f.Names.Kind == 0 {
			return LabelMap{}, fmt.Errorf("label map has no names key")
		}
		node = &f.Names
	}

	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return LabelMap{}, fmt.Errorf("failed to parse names list: %w", err)
		}
		return LabelMapFromList(list), nil
	case yaml.MappingNode:
		// Keys are decoded as strings so JSON's quoted indexes work too.
		var raw map[string]string
		if err := node.Decode(&raw); err != nil {
			return LabelMap{}, fmt.Errorf("failed to parse names mapping: %w", err)
		}
		m := make(map[int]string, len(raw))
		for k, v := range raw {
			idx, err := strconv.Atoi(k)
			if err != nil {
				return LabelMap{}, fmt.Errorf("class index %q is not an integer", k)
			}
			m[idx] = v
		}
		return LabelMap{names: m}, nil
	default:
		return LabelMap{}, fmt.Errorf("names must be a list or a mapping")
	}
}

// LoadLabelMap reads and parses a label map file.
func LoadLabelMap(path string) (LabelMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LabelMap{}, fmt.Errorf("failed to read label map: %w", err)
	}
	return ParseLabelMap(data)
}
