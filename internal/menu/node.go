package menu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind tags the variant held by a Node.
type Kind int

const (
	KindScalar Kind = iota
	KindArray
	KindObject
)

// Node is a JSON-shaped tree used for versions and override patches.
// Objects merge key by key; arrays and scalars replace wholesale.
type Node struct {
	kind   Kind
	scalar json.RawMessage
	items  []*Node
	fields map[string]*Node
}

// NewObject returns an empty object node.
func NewObject() *Node {
	return &Node{kind: KindObject, fields: map[string]*Node{}}
}

// NewArray returns an array node holding the given children.
func NewArray(children ...*Node) *Node {
	return &Node{kind: KindArray, items: children}
}

// NewScalar wraps any JSON-encodable leaf value.
func NewScalar(v any) (*Node, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scalar: %w", err)
	}
	return &Node{kind: KindScalar, scalar: raw}, nil
}

// Kind reports the node variant.
func (n *Node) Kind() Kind { return n.kind }

// Get returns an object child.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.kind != KindObject {
		return nil, false
	}
	child, ok := n.fields[key]
	return child, ok
}

// Set stores an object child. It panics on non-object nodes.
func (n *Node) Set(key string, child *Node) {
	if n.kind != KindObject {
		panic("menu: Set on non-object node")
	}
	n.fields[key] = child
}

// Keys returns object keys in sorted order.
func (n *Node) Keys() []string {
	if n == nil || n.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(n.fields))
	for k := range n.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Items returns array children.
func (n *Node) Items() []*Node {
	if n == nil || n.kind != KindArray {
		return nil
	}
	return n.items
}

// Path walks nested object keys.
func (n *Node) Path(keys ...string) (*Node, bool) {
	cur := n
	for _, k := range keys {
		next, ok := cur.Get(k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{kind: n.kind}
	switch n.kind {
	case KindScalar:
		out.scalar = append(json.RawMessage(nil), n.scalar...)
	case KindArray:
		out.items = make([]*Node, len(n.items))
		for i, child := range n.items {
			out.items[i] = child.Clone()
		}
	case KindObject:
		out.fields = make(map[string]*Node, len(n.fields))
		for k, child := range n.fields {
			out.fields[k] = child.Clone()
		}
	}
	return out
}

// Merge applies patch onto dst and returns the result. Object keys merge
// recursively; any other pairing replaces dst with a copy of patch. dst may
// be modified in place; patch never is.
func Merge(dst, patch *Node) *Node {
	if patch == nil {
		return dst
	}
	if dst == nil || dst.kind != KindObject || patch.kind != KindObject {
		return patch.Clone()
	}
	for _, k := range patch.Keys() {
		dst.fields[k] = Merge(dst.fields[k], patch.fields[k])
	}
	return dst
}

// Equal reports structural equality.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.kind != other.kind {
		return false
	}
	switch n.kind {
	case KindScalar:
		return bytes.Equal(compact(n.scalar), compact(other.scalar))
	case KindArray:
		if len(n.items) != len(other.items) {
			return false
		}
		for i := range n.items {
			if !n.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	default:
		if len(n.fields) != len(other.fields) {
			return false
		}
		for k, child := range n.fields {
			if !child.Equal(other.fields[k]) {
				return false
			}
		}
		return true
	}
}

func compact(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// UnmarshalJSON builds the tree from any JSON value.
func (n *Node) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty node")
	}
	switch data[0] {
	case '{':
		var fields map[string]*Node
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		for k, v := range fields {
			if v == nil {
				fields[k] = &Node{kind: KindScalar, scalar: json.RawMessage("null")}
			}
		}
		*n = Node{kind: KindObject, fields: fields}
	case '[':
		var items []*Node
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		for i, v := range items {
			if v == nil {
				items[i] = &Node{kind: KindScalar, scalar: json.RawMessage("null")}
			}
		}
		*n = Node{kind: KindArray, items: items}
	default:
		*n = Node{kind: KindScalar, scalar: append(json.RawMessage(nil), data...)}
	}
	return nil
}

// MarshalJSON writes the tree with object keys sorted.
func (n *Node) MarshalJSON() ([]byte, error) {
	switch n.kind {
	case KindScalar:
		return n.scalar, nil
	case KindArray:
		items := n.items
		if items == nil {
			items = []*Node{}
		}
		return json.Marshal(items)
	default:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range n.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			val, err := n.fields[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
}

// Decode unmarshals the subtree into v.
func (n *Node) Decode(v any) error {
	raw, err := n.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// ParseNode parses JSON into a Node.
func ParseNode(data []byte) (*Node, error) {
	n := &Node{}
	if err := n.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("failed to parse menu tree: %w", err)
	}
	return n, nil
}
