package graph

import (
	"sort"
	"strings"
)

// Node is a package in a dependency graph. Nodes are only created through Digraph.AddNode.
type Node struct {
	name string

	predecessors NodeRefs
	successors   NodeRefs
}

func newNode(name string) *Node {
	return &Node{
		name:         name,
		predecessors: NewNodeRefs(),
		successors:   NewNodeRefs(),
	}
}

func (n *Node) Name() string { return n.name }

// Predecessors are the nodes that depend on this one.
func (n *Node) Predecessors() *NodeRefs { return &n.predecessors }

// Successors are the nodes this one depends on.
func (n *Node) Successors() *NodeRefs { return &n.successors }

func (n *Node) String() string {
	return n.name + ", preds: [" + n.predecessors.String() + "], succs: [" + n.successors.String() + "]"
}

// NodeRefs is a set of nodes keyed by name that remembers insertion order.
type NodeRefs struct {
	nodeList []*Node
	nodeMap  map[string]*Node
}

func NewNodeRefs() NodeRefs {
	return NodeRefs{
		nodeList: []*Node{},
		nodeMap:  map[string]*Node{},
	}
}

func (n NodeRefs) Len() int {
	return len(n.nodeMap)
}

// Add inserts the node and reports whether it was not yet a member.
func (n *NodeRefs) Add(node *Node) bool {
	if n == nil || node == nil {
		return false
	}
	if _, ok := n.nodeMap[node.name]; ok {
		return false
	}
	n.nodeMap[node.name] = node
	n.nodeList = append(n.nodeList, node)
	return true
}

func (n NodeRefs) Get(name string) (*Node, bool) {
	node, ok := n.nodeMap[name]
	return node, ok
}

func (n *NodeRefs) Delete(name string) {
	if n == nil {
		return
	}
	if _, ok := n.nodeMap[name]; !ok {
		return
	}
	delete(n.nodeMap, name)

	for idx := range n.nodeList {
		if n.nodeList[idx].name == name {
			n.nodeList = append(n.nodeList[:idx], n.nodeList[idx+1:]...)
			break
		}
	}
}

// List returns the members sorted by name.
func (n NodeRefs) List() []*Node {
	listCopy := make([]*Node, len(n.nodeList))
	copy(listCopy, n.nodeList)
	sort.Slice(listCopy, func(i int, j int) bool { return listCopy[i].name < listCopy[j].name })
	return listCopy
}

// Insertion returns the members in the order in which they were added.
func (n NodeRefs) Insertion() []*Node {
	listCopy := make([]*Node, len(n.nodeList))
	copy(listCopy, n.nodeList)
	return listCopy
}

func (n NodeRefs) String() string {
	names := make([]string, 0, len(n.nodeList))
	for _, node := range n.List() {
		names = append(names, node.name)
	}
	return strings.Join(names, ", ")
}
