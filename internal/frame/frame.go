// Copyright 2024 The HLASM Language Server Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package frame implements the processing-frame tree: the interned
// opencode/copy/macro call stack that gives diagnostics and symbol
// definitions their provenance.
package frame

import (
	"sync"

	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
)

// Kind distinguishes the statement-processing context a frame belongs to.
type Kind int

const (
	// None is the zero Kind, never used for a real frame.
	None Kind = iota
	// Opencode is the top-level source.
	Opencode
	// Copy is a COPY-expanded fragment.
	Copy
	// Macro is a macro-call expansion.
	Macro
)

// Position is a zero-based line/character source position.
type Position struct {
	Line, Character int
}

// Step is one entry in the nested opencode/copy/macro call stack: a
// trivially copyable (position, resource, member, kind) tuple.
type Step struct {
	Pos      Position
	Resource resource.Location
	Member   string
	Kind     Kind
}

// Node is an interned entry in the processing-frame tree: a (parent, Step)
// pair. Node identity is the pointer: two stacks are equal iff they share
// the same leaf Node pointer, which in turn holds iff their flattened
// representations (ToVector) are equal, because nodes are deduped by
// (parent, step) on construction.
type Node struct {
	parent *Node
	step   Step
}

// Parent returns the calling frame's node, or nil at the root.
func (n *Node) Parent() *Node { return n.parent }

// Step returns this node's own frame.
func (n *Node) Step() Step { return n.step }

// Tree interns the set of (parent, step) nodes that make up every call
// stack ever observed during an analysis. Backed conceptually by a
// monotonic (bump) arena: nodes are never mutated or freed for the
// lifetime of the Tree, so pointers handed out remain valid and stable
// for as long as any handle into the Tree is alive. Go's garbage collector
// makes a literal bump allocator unnecessary for memory safety, but the
// never-mutate/never-free discipline is preserved: Step, once interned, is
// never altered.
type Tree struct {
	mu    sync.Mutex
	nodes map[nodeKey]*Node
}

type nodeKey struct {
	parent *Node
	step   Step
}

// New constructs an empty Tree.
func New() *Tree {
	return &Tree{nodes: make(map[nodeKey]*Node)}
}

// Step interns (current, step) and returns the resulting node. A nil
// current denotes the empty stack, i.e. stepping from the root.
func (t *Tree) Step(current *Node, pos Position, loc resource.Location, member string, kind Kind) *Node {
	step := Step{Pos: pos, Resource: loc, Member: member, Kind: kind}
	key := nodeKey{parent: current, step: step}

	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.nodes[key]; ok {
		return n
	}
	n := &Node{parent: current, step: step}
	t.nodes[key] = n
	return n
}

// ToVector walks n's parent chain and returns the frames in root-first
// order — the shape diagnostics and symbol definitions actually carry.
func ToVector(n *Node) []Step {
	var rev []Step
	for cur := n; cur != nil; cur = cur.parent {
		rev = append(rev, cur.step)
	}
	out := make([]Step, len(rev))
	for i, s := range rev {
		out[len(rev)-1-i] = s
	}
	return out
}
