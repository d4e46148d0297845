// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package treeprinter

import (
	"fmt"
	"strings"
)

const (
	edgeLink = " │   "
	edgeMid  = " ├── "
	edgeLast = " └── "
	edgeNone = "     "
)

// Node is a handle associated with a specific depth in a tree. See below for
// sample usage.
type Node struct {
	n *node
}

type node struct {
	text     string
	children []*node
}

// New creates a tree printer and returns a sentinel node reference which
// should be used to add the root. Sample usage:
//
//	tp := New()
//	root := tp.Child("root")
//	root.Child("child-1")
//	root.Child("child-2").Child("grandchild")
//
//	fmt.Print(tp.String())
//
// Output:
//
//	root
//	 ├── child-1
//	 └── child-2
//	      └── grandchild
func New() Node {
	return Node{n: &node{}}
}

// Child adds a node as a child of the given node.
func (n Node) Child(text string) Node {
	c := &node{text: text}
	n.n.children = append(n.n.children, c)
	return Node{n: c}
}

// Childf adds a node as a child of the given node.
func (n Node) Childf(format string, args ...interface{}) Node {
	return n.Child(fmt.Sprintf(format, args...))
}

// String returns the tree as a string. It must be called on the sentinel node
// returned by New.
func (n Node) String() string {
	var buf strings.Builder
	for _, root := range n.n.children {
		root.format(&buf, "", "")
	}
	return buf.String()
}

func (n *node) format(buf *strings.Builder, edge, prefix string) {
	buf.WriteString(prefix)
	buf.WriteString(edge)
	buf.WriteString(n.text)
	buf.WriteByte('\n')

	childPrefix := prefix
	switch edge {
	case edgeMid:
		childPrefix += edgeLink
	case edgeLast:
		childPrefix += edgeNone
	}
	for i, c := range n.children {
		if i == len(n.children)-1 {
			c.format(buf, edgeLast, childPrefix)
		} else {
			c.format(buf, edgeMid, childPrefix)
		}
	}
}
