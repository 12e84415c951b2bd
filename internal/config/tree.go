package config

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Tree is a nested key-value configuration tree. Leaves hold cty values plus
// the source file that defined them; interior nodes hold named children in
// declaration order.
type Tree struct {
	root *node
}

type node struct {
	children map[string]*node
	order    []string

	leaf  bool
	value cty.Value
	file  string
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// NewTree returns an empty configuration tree.
func NewTree() *Tree {
	return &Tree{root: newNode()}
}

// splitPath splits a dot-separated key path into its segments.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func (n *node) child(key string) *node {
	c, ok := n.children[key]
	if !ok {
		c = newNode()
		n.children[key] = c
		n.order = append(n.order, key)
	}
	return c
}

func (n *node) lookup(segments []string) *node {
	cur := n
	for _, seg := range segments {
		next, ok := cur.children[seg]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// SetLeaf defines a value at the given path, recording the source file. It
// fails with ErrDuplicateKey if the path already holds a defined value, and
// with ErrBadValue if the path crosses an existing leaf.
func (t *Tree) SetLeaf(path string, value cty.Value, file string) error {
	segments := splitPath(path)
	if len(segments) == 0 {
		return fmt.Errorf("%w: empty key path", ErrBadValue)
	}

	cur := t.root
	for i, seg := range segments {
		if cur.leaf {
			return fmt.Errorf("%w: %q is already a value, cannot hold nested key %q",
				ErrBadValue, strings.Join(segments[:i], "."), path)
		}
		cur = cur.child(seg)
	}

	if cur.leaf {
		return fmt.Errorf("%w: %q defined in both %s and %s", ErrDuplicateKey, path, cur.file, file)
	}
	if len(cur.children) > 0 {
		return fmt.Errorf("%w: %q already holds nested keys", ErrBadValue, path)
	}
	cur.leaf = true
	cur.value = value
	cur.file = file
	return nil
}

// setDefault defines a value at the path only when nothing is defined there.
func (t *Tree) setDefault(path string, value cty.Value) {
	if t.Has(path) {
		return
	}
	// A leaf on a prefix of the path would be a schema conflict caught by
	// validation; defaults never overwrite.
	_ = t.SetLeaf(path, value, "(default)")
}

// Has reports whether the path holds a defined value.
func (t *Tree) Has(path string) bool {
	n := t.root.lookup(splitPath(path))
	return n != nil && n.leaf
}

// HasSubtree reports whether the path exists as either a value or a branch.
func (t *Tree) HasSubtree(path string) bool {
	return t.root.lookup(splitPath(path)) != nil
}

// Value returns the cty value at the path.
func (t *Tree) Value(path string) (cty.Value, error) {
	n := t.root.lookup(splitPath(path))
	if n == nil || !n.leaf {
		return cty.NilVal, fmt.Errorf("%w: %q", ErrMissingKey, path)
	}
	return n.value, nil
}

// SourceFile returns the file that defined the value at the path, or "" when
// the path is undefined.
func (t *Tree) SourceFile(path string) string {
	n := t.root.lookup(splitPath(path))
	if n == nil || !n.leaf {
		return ""
	}
	return n.file
}

// Keys returns the child key names under the path in declaration order. A
// missing or leaf path yields nil.
func (t *Tree) Keys(path string) []string {
	n := t.root.lookup(splitPath(path))
	if n == nil || n.leaf {
		return nil
	}
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Sub returns the subtree rooted at the path. A missing path yields an empty
// tree so fragment validation can report missing required keys itself.
func (t *Tree) Sub(path string) *Tree {
	n := t.root.lookup(splitPath(path))
	if n == nil {
		return NewTree()
	}
	return &Tree{root: n}
}

// Walk visits every leaf in declaration order, passing its full path and
// value.
func (t *Tree) Walk(fn func(path string, value cty.Value, file string)) {
	var visit func(prefix string, n *node)
	visit = func(prefix string, n *node) {
		if n.leaf {
			fn(prefix, n.value, n.file)
			return
		}
		for _, key := range n.order {
			p := key
			if prefix != "" {
				p = prefix + "." + key
			}
			visit(p, n.children[key])
		}
	}
	visit("", t.root)
}
