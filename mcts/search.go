package mcts

import (
	"github.com/gorgonia/searchrl/game"
)

/*
Here lies the search proper, while node.go and tree.go handle the data structure stuff.

A simulation is SELECT, EVALUATE, BACKPROPAGATE. Expansion happens lazily, when a node is first selected from.
*/

// step is a node on the path of a simulation, and the action that was selected from it.
type step struct {
	ref    NodeRef
	action game.Action
}

// Example is a training example: the state of a committed move, the policy it was sampled from,
// and the outcome of the episode as seen from the state.
type Example struct {
	State  [][]int32
	Policy []float32
	Value  float32
	Action game.Action
}

// Episode is a self-played episode.
type Episode struct {
	Examples []Example
	Path     []NodeRef     // the nodes that moves were committed from
	Actions  []game.Action // the committed moves
	Terminal NodeRef
	Reward   float32
}

// Simulate runs count simulations from the given node.
//
// The node itself is always selected from unless it is terminal. Below it, the
// simulation descends through visited non-terminal nodes and stops at the first
// unvisited or terminal one. The leaf is worth its reward if it is terminal, or
// the value from the Inferencer otherwise. The value is then backed up along the
// path in reverse, each ancestor reinterpreting it from its own perspective
// before its statistics are updated.
func (t *Tree) Simulate(ref NodeRef, count int) {
	path := make([]step, 0, 16)
	for i := 0; i < count; i++ {
		path = t.simulate(ref, path[:0])
	}
}

func (t *Tree) simulate(start NodeRef, path []step) []step {
	// SELECT
	current := start
	for {
		n := t.nodes.Get(current)
		if n.terminal || (current != start && n.visits == 0) {
			break
		}
		a, child := t.nodes.SelectAction(current, t.ExploreFactor)
		path = append(path, step{current, a})
		current = child
	}

	// EVALUATE
	leaf := t.nodes.Get(current)
	value := leaf.reward
	if !leaf.terminal {
		var policy []float32
		policy, value = t.nodes.nn.Infer(leaf.state)
		if !leaf.IsExpanded() {
			leaf.priors = policy
		}
	}
	leaf.visits++
	t.log("\tLEAF %v value %v depth %d", leaf, value, len(path))

	// BACKPROPAGATE
	for i := len(path) - 1; i >= 0; i-- {
		s := path[i]
		n := t.nodes.Get(s.ref)
		n.visits++
		value = n.state.Value(s.action, value)
		stats := n.stats.Ptr(s.action)
		stats.Count++
		stats.TotalValue += value
	}
	return path
}

// ExecuteEpisode self-plays an episode from the root of the tree and returns its examples.
func (t *Tree) ExecuteEpisode(simCount int, temperature float32) []Example {
	return t.Play(simCount, temperature).Examples
}

// Play self-plays an episode from the root of the tree. Before every committed move the current node is
// simulated simCount times, and the move is sampled from its visit counts at the given temperature.
// The values of the examples are replayed backwards from the terminal reward.
func (t *Tree) Play(simCount int, temperature float32) (retVal Episode) {
	current := t.root
	for {
		n := t.nodes.Get(current)
		if reward, terminal := n.Reward(); terminal {
			retVal.Terminal = current
			retVal.Reward = reward
			break
		}
		state := n.state
		if t.noisy() {
			t.nodes.addNoise(current, t.DirichletAlpha, t.DirichletEpsilon, t.rand)
		}
		t.Simulate(current, simCount)

		policy := t.nodes.Policy(current, temperature)
		a := sample(policy, t.rand.Float32())
		t.log("MOVE %d: %v from %v, policy %v", len(retVal.Actions), a, t.nodes.Get(current), policy)

		retVal.Examples = append(retVal.Examples, Example{
			State:  state.AsArray(),
			Policy: policy,
			Action: a,
		})
		retVal.Path = append(retVal.Path, current)
		retVal.Actions = append(retVal.Actions, a)
		current = t.nodes.Get(current).children.At(a)
	}

	value := retVal.Reward
	for i := len(retVal.Path) - 1; i >= 0; i-- {
		state := t.nodes.Get(retVal.Path[i]).state
		value = state.Value(retVal.Actions[i], value)
		retVal.Examples[i].Value = value
	}
	t.log("EPISODE: %d moves, reward %v, %d nodes", len(retVal.Actions), retVal.Reward, t.nodes.Len())
	return retVal
}
