// Package hierarchy holds the material-group tree that classifications walk.
//
// Codes are fixed-width strings made of 2-character segments. A node's parent
// is implied by its code: strip the trailing segment. The tree is built once
// and then only read, so a single *Tree can be shared by any number of
// concurrent classifications without locking.
package hierarchy

import (
	"errors"
	"strings"
)

// RootCode is the synthetic code of the tree root.
const RootCode = "ROOT"

// SegmentWidth is the number of characters each level adds to a code.
const SegmentWidth = 2

// ErrNotFound is returned by lookups for codes that are not in the tree.
var ErrNotFound = errors.New("hierarchy node not found")

// Option is a (code, description) pair as offered to the oracle and as
// recorded in classification paths.
type Option struct {
	Code        string `json:"codigo"`
	Description string `json:"descricao"`
}

// Node is a category in the hierarchy.
type Node struct {
	Code        string
	Description string
	Level       int

	children []*Node
	index    map[string]*Node
}

func newNode(code, description string) *Node {
	level := len(code)
	if code == RootCode {
		level = 0
	}
	return &Node{
		Code:        code,
		Description: description,
		Level:       level,
		index:       make(map[string]*Node),
	}
}

// Depth is the number of segments below the root.
func (n *Node) Depth() int {
	return n.Level / SegmentWidth
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.children) == 0
}

// IsRoot reports whether the node is the synthetic root.
func (n *Node) IsRoot() bool {
	return n.Code == RootCode
}

// Children returns the node's children in insertion order. The returned
// slice is a copy; callers may reorder or trim it freely.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// NumChildren returns the number of direct children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// Child returns the direct child with the given code.
func (n *Node) Child(code string) (*Node, bool) {
	c, ok := n.index[code]
	return c, ok
}

// Option returns the node as a (code, description) pair.
func (n *Node) Option() Option {
	return Option{Code: n.Code, Description: n.Description}
}

// Options returns the children as options, in insertion order.
func (n *Node) Options() []Option {
	out := make([]Option, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c.Option())
	}
	return out
}

func (n *Node) attach(child *Node) {
	n.children = append(n.children, child)
	n.index[child.Code] = child
}

// Tree is the category tree plus an index of every inserted code.
type Tree struct {
	root  *Node
	nodes map[string]*Node
}

// New returns an empty tree containing only the root.
func New() *Tree {
	return &Tree{
		root:  newNode(RootCode, "Raiz"),
		nodes: make(map[string]*Node),
	}
}

// Root returns the synthetic root node.
func (t *Tree) Root() *Node {
	return t.root
}

// Len returns the number of inserted nodes, orphans included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Lookup returns the node with the given code. The root is found by RootCode.
func (t *Tree) Lookup(code string) (*Node, error) {
	if code == RootCode {
		return t.root, nil
	}
	n, ok := t.nodes[NormalizeCode(code)]
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

// AddNode inserts a node and attaches it to the parent implied by its code.
// Codes must already be normalized. It reports whether the node was attached;
// a node whose parent is not present yet is indexed but stays unreachable
// from the root, and a duplicate code is ignored. Callers insert in ascending
// code length so parents exist before their children.
func (t *Tree) AddNode(code, description string) bool {
	if code == "" || code == RootCode {
		return false
	}
	if _, dup := t.nodes[code]; dup {
		return false
	}

	n := newNode(code, description)
	t.nodes[code] = n

	parent := t.parentOf(code)
	if parent == nil {
		return false
	}
	parent.attach(n)
	return true
}

func (t *Tree) parentOf(code string) *Node {
	if len(code) <= SegmentWidth {
		return t.root
	}
	return t.nodes[code[:len(code)-SegmentWidth]]
}

// Path returns the options from the root (exclusive) down to code.
func (t *Tree) Path(code string) ([]Option, error) {
	n, err := t.Lookup(code)
	if err != nil {
		return nil, err
	}
	if n.IsRoot() {
		return []Option{}, nil
	}
	var out []Option
	for l := SegmentWidth; l <= len(n.Code); l += SegmentWidth {
		anc, ok := t.nodes[n.Code[:l]]
		if !ok {
			return nil, ErrNotFound
		}
		out = append(out, anc.Option())
	}
	return out, nil
}

// NormalizeCode trims a raw group code and left-pads odd-length codes with
// a single zero so every level is exactly two characters wide.
func NormalizeCode(raw string) string {
	code := strings.TrimSpace(raw)
	if code == RootCode {
		return code
	}
	// Numeric spreadsheet cells come through as "101.0".
	if strings.HasSuffix(code, ".0") && isDigits(strings.TrimSuffix(code, ".0")) {
		code = strings.TrimSuffix(code, ".0")
	}
	if code != "" && len(code)%SegmentWidth != 0 {
		code = "0" + code
	}
	return code
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
