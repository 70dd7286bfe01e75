package store

import (
	"fmt"
	"sort"
)

// Node is one group: attributes, datasets and child groups.
//
// Attribute values are float64, int64, bool or string; int values are
// widened to int64 by SetAttr.
type Node struct {
	Attrs    map[string]any
	Datasets map[string][]float64
	Children map[string]*Node
}

// NewNode returns an empty group.
func NewNode() *Node {
	return &Node{
		Attrs:    make(map[string]any),
		Datasets: make(map[string][]float64),
		Children: make(map[string]*Node),
	}
}

// SetAttr stores a scalar attribute and returns n for chaining.
func (n *Node) SetAttr(name string, v any) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}
	if i, ok := v.(int); ok {
		v = int64(i)
	}
	n.Attrs[name] = v
	return n
}

// SetDataset stores a copy of data.
func (n *Node) SetDataset(name string, data []float64) *Node {
	if n.Datasets == nil {
		n.Datasets = make(map[string][]float64)
	}
	n.Datasets[name] = append([]float64(nil), data...)
	return n
}

// Child returns the named child group, creating it if needed.
func (n *Node) Child(name string) *Node {
	if n.Children == nil {
		n.Children = make(map[string]*Node)
	}
	c, ok := n.Children[name]
	if !ok {
		c = NewNode()
		n.Children[name] = c
	}
	return c
}

// Float returns a numeric attribute as float64.
func (n *Node) Float(name string) (float64, bool) {
	switch v := n.Attrs[name].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Bool returns a boolean attribute.
func (n *Node) Bool(name string) (bool, bool) {
	v, ok := n.Attrs[name].(bool)
	return v, ok
}

// Text returns a string attribute.
func (n *Node) Text(name string) (string, bool) {
	v, ok := n.Attrs[name].(string)
	return v, ok
}

// AttrNames lists attribute names in sorted order.
func (n *Node) AttrNames() []string { return sortedKeys(n.Attrs) }

// DatasetNames lists dataset names in sorted order.
func (n *Node) DatasetNames() []string { return sortedKeys(n.Datasets) }

// ChildNames lists child group names in sorted order.
func (n *Node) ChildNames() []string { return sortedKeys(n.Children) }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// validate checks attribute types and names recursively.
func (n *Node) validate(path string) error {
	for name, v := range n.Attrs {
		if err := checkName(name); err != nil {
			return fmt.Errorf("%s: attribute %w", path, err)
		}
		switch v.(type) {
		case float64, int64, bool, string:
		default:
			return fmt.Errorf("%w: %s/%s has type %T", ErrUnsupportedAttr, path, name, v)
		}
	}
	for name := range n.Datasets {
		if err := checkName(name); err != nil {
			return fmt.Errorf("%s: dataset %w", path, err)
		}
	}
	for name, c := range n.Children {
		if err := checkName(name); err != nil {
			return fmt.Errorf("%s: child %w", path, err)
		}
		if c == nil {
			return fmt.Errorf("%w: %s/%s is nil", ErrBadKey, path, name)
		}
		if err := c.validate(path + "/" + name); err != nil {
			return err
		}
	}
	return nil
}
