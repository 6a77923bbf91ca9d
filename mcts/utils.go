package mcts

import (
	"sort"

	"github.com/gorgonia/searchrl/game"
)

// byVisits sorts the actions of a node, most visited first. Equally visited actions are
// sorted by quality, then by prior. Unvisited actions have no quality to compare.
type byVisits struct {
	stats   game.ActionMap[Stats]
	actions []game.Action
}

func (l byVisits) Len() int      { return len(l.actions) }
func (l byVisits) Swap(i, j int) { l.actions[i], l.actions[j] = l.actions[j], l.actions[i] }
func (l byVisits) Less(i, j int) bool {
	si := l.stats.At(l.actions[i])
	sj := l.stats.At(l.actions[j])
	if si.Count != sj.Count {
		return si.Count > sj.Count
	}
	if si.Count == 0 {
		return si.Prior > sj.Prior
	}
	return si.Quality() > sj.Quality()
}

// Ranked returns the actions of an expanded node from best to worst. The sort is stable.
func (t *Tree) Ranked(ref NodeRef) []game.Action {
	n := t.Node(ref)
	stats := n.Stats()
	actions := make([]game.Action, 0, stats.Len())
	for a := range game.Actions(n.state) {
		actions = append(actions, a)
	}
	sort.Stable(byVisits{stats: stats, actions: actions})
	return actions
}

// BestAction returns the best ranked action of an expanded node.
func (t *Tree) BestAction(ref NodeRef) (game.Action, NodeRef) {
	a := t.Ranked(ref)[0]
	return a, t.Node(ref).children.At(a)
}

// PrincipalVariation follows the best action from ref for as long as the nodes are expanded.
func (t *Tree) PrincipalVariation(ref NodeRef) (retVal []game.Action) {
	for t.Node(ref).IsExpanded() {
		var a game.Action
		a, ref = t.BestAction(ref)
		if t.Node(ref).visits == 0 {
			break
		}
		retVal = append(retVal, a)
	}
	return
}
