package mcts

// NodeRef is essentially *Node. It is an index into the arena that owns the node.
type NodeRef int

func (n NodeRef) isValid() bool { return n >= 0 }

const (
	nilNode NodeRef = -1
)
