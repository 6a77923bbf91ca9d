package mcts

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/chewxy/math32"
	"github.com/gorgonia/searchrl/game"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distmv"
	"gorgonia.org/vecf32"
)

// Nodes is the arena that owns every node of a tree. Nodes are never freed, so a NodeRef stays valid for the life of the arena.
type Nodes struct {
	nodes []Node
	nn    Inferencer
}

func newNodes(nn Inferencer) *Nodes {
	return &Nodes{
		nodes: make([]Node, 0, 1024),
		nn:    nn,
	}
}

// Get returns the node. The pointer is only valid until the next node is allocated.
func (ns *Nodes) Get(ref NodeRef) *Node { return &ns.nodes[int(ref)] }

func (ns *Nodes) Len() int { return len(ns.nodes) }

// add allocates a node for the state in the arena.
func (ns *Nodes) add(state game.State) NodeRef {
	ref := NodeRef(len(ns.nodes))
	reward, terminal := state.Reward()
	ns.nodes = append(ns.nodes, Node{
		state:    state,
		reward:   reward,
		terminal: terminal,
		id:       ref,
	})
	return ref
}

// Expand creates the children and statistics of a node. It does nothing if the node has already been expanded.
//
// The priors come from the leaf evaluation of the node if it has been evaluated, or from the Inferencer otherwise.
// They are renormalised over the actions. If they sum to (nearly) 0, the actions are given a uniform prior.
func (ns *Nodes) Expand(ref NodeRef) {
	n := ns.Get(ref)
	if n.IsExpanded() {
		return
	}
	if n.terminal {
		panic(fmt.Sprintf("mcts: cannot expand node %d: the state is terminal", ref))
	}
	state := n.state
	count := state.ActionCount()
	if count < 1 {
		panic(fmt.Sprintf("mcts: cannot expand node %d: a non-terminal state has no actions", ref))
	}

	priors := n.priors
	if priors == nil {
		priors, _ = ns.nn.Infer(state)
	}
	if len(priors) != count {
		panic(errors.Errorf("mcts: the inferencer returned %d priors for %d actions", len(priors), count))
	}
	priors = normalise(priors)

	children := make([]NodeRef, 0, count)
	for a := range game.Actions(state) {
		children = append(children, ns.add(state.Take(a)))
	}
	stats := make([]Stats, count)
	for i := range stats {
		stats[i].Prior = priors[i]
	}

	n = ns.Get(ref) // adding children may have moved the arena
	n.expansion = &expansion{
		stats:    game.MakeActionMap(stats),
		children: game.MakeActionMap(children),
	}
	n.priors = nil
}

// SelectAction expands the node if need be, and returns the action with the highest PUCT score, along with its child.
// Ties go to the first action.
func (ns *Nodes) SelectAction(ref NodeRef, explore float32) (game.Action, NodeRef) {
	ns.Expand(ref)
	n := ns.Get(ref)

	var best game.Action
	var bestValue float32 = math32.Inf(-1)
	for a, s := range n.stats.All() {
		usa := s.PUCT(n.visits, explore)
		if usa > bestValue {
			bestValue = usa
			best = a
		}
	}
	return best, n.children.At(best)
}

// Policy expands the node if need be, and returns the visit count distribution of its actions at the given temperature:
// N(s, a)^(1/T), normalised. If no action has been visited, the distribution is uniform.
func (ns *Nodes) Policy(ref NodeRef, temperature float32) []float32 {
	ns.Expand(ref)
	n := ns.Get(ref)

	var maxVisits int
	for _, s := range n.stats.All() {
		if s.Count > maxVisits {
			maxVisits = s.Count
		}
	}
	retVal := make([]float32, n.stats.Len())
	if maxVisits == 0 {
		for i := range retVal {
			retVal[i] = 1 / float32(len(retVal))
		}
		return retVal
	}
	// counts are scaled by the largest count so that low temperatures do not overflow
	norm := float32(maxVisits)
	for a, s := range n.stats.All() {
		retVal[a] = math32.Pow(float32(s.Count)/norm, 1/temperature)
	}
	vecf32.Scale(retVal, 1/vecf32.Sum(retVal))
	return retVal
}

// SampleAction draws an action from the visit count distribution of the node at the given temperature.
func (ns *Nodes) SampleAction(ref NodeRef, temperature float32, r *rand.Rand) (game.Action, NodeRef) {
	policy := ns.Policy(ref, temperature)
	a := sample(policy, r.Float32())
	return a, ns.Get(ref).children.At(a)
}

// sample returns the first action with a nonzero weight whose cumulative weight reaches the draw.
// If rounding leaves the draw out of reach, the last action with a nonzero weight is returned.
func sample(policy []float32, draw float32) game.Action {
	var accum float32
	last := -1
	for i, p := range policy {
		if p <= 0 {
			continue
		}
		accum += p
		last = i
		if accum >= draw {
			return game.Action(i)
		}
	}
	if last < 0 {
		panic("mcts: cannot sample from an empty policy")
	}
	return game.Action(last)
}

// addNoise mixes Dirichlet noise into the priors of the node. Each node receives noise at most once.
func (ns *Nodes) addNoise(ref NodeRef, alpha, epsilon float64, r *rand.Rand) {
	ns.Expand(ref)
	n := ns.Get(ref)
	if n.noised {
		return
	}
	n.noised = true

	count := n.stats.Len()
	alphas := make([]float64, count)
	for i := range alphas {
		alphas[i] = alpha
	}
	noise := distmv.NewDirichlet(alphas, r).Rand(nil)
	for a := range game.Actions(n.state) {
		s := n.stats.Ptr(a)
		s.Prior = float32((1-epsilon)*float64(s.Prior) + epsilon*noise[a])
	}
}

// normalise scales the priors so that they sum to 1, in a copy.
func normalise(priors []float32) []float32 {
	retVal := make([]float32, len(priors))
	copy(retVal, priors)
	sum := vecf32.Sum(retVal)
	switch {
	case sum <= math32.SmallestNonzeroFloat32:
		for i := range retVal {
			retVal[i] = 1 / float32(len(retVal))
		}
	case math32.Abs(sum-1) > 1e-6:
		vecf32.Scale(retVal, 1/sum)
	}
	return retVal
}

// Tree is a search tree: an arena of nodes and the root of the search.
//
// A Tree is not safe for concurrent use.
type Tree struct {
	Config
	nodes *Nodes
	root  NodeRef
	rand  *rand.Rand

	lumberjack
}

// New creates a tree rooted at the given state.
func New(state game.State, conf Config, opts ...Option) *Tree {
	seed := uint64(time.Now().UnixNano())
	retVal := &Tree{
		Config:     conf,
		nodes:      newNodes(Uniform{}),
		rand:       rand.New(rand.NewPCG(seed, seed>>1)),
		lumberjack: makeLumberJack(),
	}
	for _, opt := range opts {
		opt(retVal)
	}
	retVal.root = retVal.nodes.add(state)
	return retVal
}

func (t *Tree) Root() NodeRef { return t.root }

// Node returns the node that the ref refers to. The pointer is only valid until the tree grows.
func (t *Tree) Node(ref NodeRef) *Node {
	if !ref.isValid() || int(ref) >= t.nodes.Len() {
		panic(fmt.Sprintf("mcts: invalid node %d", ref))
	}
	return t.nodes.Get(ref)
}

// Nodes returns the number of nodes in the tree.
func (t *Tree) Nodes() int { return t.nodes.Len() }

// Reset discards every node and starts over from the root state.
func (t *Tree) Reset() {
	state := t.nodes.Get(t.root).state
	t.nodes = newNodes(t.nodes.nn)
	t.root = t.nodes.add(state)
	t.lumberjack.Reset()
}

func (t *Tree) SelectAction(ref NodeRef) (game.Action, NodeRef) {
	return t.nodes.SelectAction(ref, t.ExploreFactor)
}

func (t *Tree) SampleAction(ref NodeRef, temperature float32) (game.Action, NodeRef) {
	return t.nodes.SampleAction(ref, temperature, t.rand)
}

func (t *Tree) Policy(ref NodeRef, temperature float32) []float32 {
	return t.nodes.Policy(ref, temperature)
}
