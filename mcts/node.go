package mcts

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gorgonia/searchrl/game"
)

// Stats are the statistics of taking an action from a state.
type Stats struct {
	Count      int     // N(s, a)
	TotalValue float32 // W(s, a)
	Prior      float32 // P(s, a)
}

// Quality is W(s, a)/N(s, a). It is undefined for an action that has never been taken, and panics.
func (s Stats) Quality() float32 {
	if s.Count == 0 {
		panic("mcts: quality of an unvisited action")
	}
	return s.TotalValue / float32(s.Count)
}

// PUCT is the upper bound used for selection:
//
//	U(s, a) = Q(s, a) + e * P(s, a) * sqrt(N(s)) / (1 + N(s, a))
//
// Q(s, a) is taken to be 0 for an action that has never been taken.
func (s Stats) PUCT(parentVisits int, explore float32) float32 {
	var qsa float32
	if s.Count > 0 {
		qsa = s.Quality()
	}
	numerator := math32.Sqrt(float32(parentVisits))
	denominator := 1.0 + float32(s.Count)
	return qsa + explore*s.Prior*(numerator/denominator)
}

// expansion is what a node gains when it is expanded. The stats and the children are created together.
type expansion struct {
	stats    game.ActionMap[Stats]
	children game.ActionMap[NodeRef]
}

// Node is a position in the search tree.
type Node struct {
	state  game.State
	visits int // N(s)

	reward   float32
	terminal bool

	priors []float32 // from the leaf evaluation, consumed by the expansion
	noised bool
	*expansion

	id NodeRef
}

func (n *Node) Format(s fmt.State, c rune) {
	fmt.Fprintf(s, "{NodeID: %v Visits: %v Expanded: %t", n.id, n.visits, n.IsExpanded())
	if n.terminal {
		fmt.Fprintf(s, " Reward: %v", n.reward)
	}
	fmt.Fprint(s, "}")
}

func (n *Node) ID() NodeRef { return n.id }

// State returns the state of the node. It must not be modified.
func (n *Node) State() game.State { return n.state }

// Visits returns N(s)
func (n *Node) Visits() int { return n.visits }

// Reward returns the memoised terminal reward of the state.
func (n *Node) Reward() (reward float32, terminal bool) { return n.reward, n.terminal }

func (n *Node) IsExpanded() bool { return n.expansion != nil }

// Stats returns the per action statistics. It panics if the node has not been expanded.
func (n *Node) Stats() game.ActionMap[Stats] {
	n.mustBeExpanded()
	return n.stats
}

// Children returns the per action children. It panics if the node has not been expanded.
func (n *Node) Children() game.ActionMap[NodeRef] {
	n.mustBeExpanded()
	return n.children
}

// Quality is the mean value backed up through the node's actions. A node that has no backed up values has a quality of 0.
func (n *Node) Quality() float32 {
	if n.expansion == nil {
		return 0
	}
	var count int
	var total float32
	for _, s := range n.stats.All() {
		count += s.Count
		total += s.TotalValue
	}
	if count == 0 {
		return 0
	}
	return total / float32(count)
}

func (n *Node) mustBeExpanded() {
	if n.expansion == nil {
		panic(fmt.Sprintf("mcts: node %d has not been expanded", n.id))
	}
}
