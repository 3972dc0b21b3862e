// Package xmltree turns bureau XML into a generic tree of text leaves and
// element maps, keeping the single-versus-repeated distinction explicit.
package xmltree

// Node is either a text leaf or an object of child values. A nil *Node is
// the absent node and is safe to query.
type Node struct {
	text     string
	object   bool
	children map[string]Value
	keys     []string
}

// Value holds the occurrences of one child tag: a single node or a sequence.
type Value struct {
	nodes []*Node
	many  bool
}

// Text returns a leaf node.
func Text(s string) *Node {
	return &Node{text: s}
}

// Object returns an empty object node.
func Object() *Node {
	return &Node{object: true, children: make(map[string]Value)}
}

// Single wraps one node.
func Single(n *Node) Value {
	return Value{nodes: []*Node{n}}
}

// Many wraps a sequence of nodes, even a sequence of one.
func Many(nodes ...*Node) Value {
	return Value{nodes: nodes, many: true}
}

// Set stores v under key, replacing any previous value.
func (n *Node) Set(key string, v Value) *Node {
	if _, exists := n.children[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.children[key] = v
	return n
}

// add appends one occurrence of key, promoting a single value to a sequence.
func (n *Node) add(key string, child *Node) {
	v, exists := n.children[key]
	if !exists {
		n.keys = append(n.keys, key)
		n.children[key] = Single(child)
		return
	}
	v.nodes = append(v.nodes, child)
	v.many = true
	n.children[key] = v
}

// IsObject reports whether n has element children.
func (n *Node) IsObject() bool {
	return n != nil && n.object
}

// IsText reports whether n is a leaf.
func (n *Node) IsText() bool {
	return n != nil && !n.object
}

// String returns the text of a leaf and "" for objects and absent nodes.
func (n *Node) String() string {
	if n == nil || n.object {
		return ""
	}
	return n.text
}

// Keys returns child tags in first-seen document order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	return append([]string(nil), n.keys...)
}

// Child returns the value stored under key. Absent keys, text nodes and nil
// nodes yield the empty Value.
func (n *Node) Child(key string) Value {
	if n == nil || !n.object {
		return Value{}
	}
	return n.children[key]
}

// Items is the single "as sequence" accessor: nothing, one node, or all
// nodes of a sequence in document order.
func (v Value) Items() []*Node {
	return v.nodes
}

// First returns the first occurrence, or nil.
func (v Value) First() *Node {
	if len(v.nodes) == 0 {
		return nil
	}
	return v.nodes[0]
}

// Present reports whether the key occurred at all.
func (v Value) Present() bool {
	return len(v.nodes) > 0
}

// IsMany reports whether the value is a sequence.
func (v Value) IsMany() bool {
	return v.many
}

// Len returns the number of occurrences.
func (v Value) Len() int {
	return len(v.nodes)
}
