package mcts

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/gorgonia/searchrl/game"
	"github.com/gorgonia/searchrl/game/hex"
	"github.com/gorgonia/searchrl/game/mnk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/vecf32"
)

// coin is a one move game: heads wins, tails loses.
type coin struct{ flipped int }

func (c coin) Init() game.State { return coin{} }
func (c coin) ActionCount() int {
	if c.flipped == 0 {
		return 2
	}
	return 0
}
func (c coin) Take(a game.Action) game.State {
	game.CheckAction(c, a)
	return coin{flipped: int(a) + 1}
}
func (c coin) Reward() (float32, bool) {
	switch c.flipped {
	case 1:
		return 1, true
	case 2:
		return -1, true
	}
	return 0, false
}
func (c coin) Value(taken game.Action, value float32) float32 { return -value }
func (c coin) AsArray() [][]int32                             { return [][]int32{{int32(c.flipped)}} }

type inferFunc func(game.State) ([]float32, float32)

func (f inferFunc) Infer(state game.State) ([]float32, float32) { return f(state) }

// favourLast puts all of the prior on the last action.
func favourLast(value float32) Inferencer {
	return inferFunc(func(s game.State) ([]float32, float32) {
		policy := make([]float32, s.ActionCount())
		policy[len(policy)-1] = 2
		return policy, value
	})
}

func seeded(seed uint64) Option { return WithRand(rand.New(rand.NewPCG(seed, seed))) }

func newHexTree(t *testing.T, n int, opts ...Option) *Tree {
	g, err := hex.New(n)
	require.NoError(t, err)
	return New(g, DefaultConfig(), opts...)
}

func sumCounts(n *Node) (retVal int) {
	for _, s := range n.Stats().All() {
		retVal += s.Count
	}
	return
}

func TestSimulateCountsEverySimulation(t *testing.T) {
	tree := newHexTree(t, 3, seeded(1))
	root := tree.Root()
	total := 0
	for _, k := range []int{1, 7, 50} {
		tree.Simulate(root, k)
		total += k
		assert.Equal(t, total, sumCounts(tree.Node(root)), "after %d simulations", total)
		assert.Equal(t, total, tree.Node(root).Visits())
	}
	assert.Greater(t, tree.Nodes(), 10, "the tree should have grown beyond the root's children")
}

func TestBackup(t *testing.T) {
	tree := New(coin{}, DefaultConfig())
	root := tree.Root()

	tree.Simulate(root, 1)
	stats := tree.Node(root).Stats()
	// heads is worth 1 to the player who flipped it, and -1 from the perspective of the root
	assert.Equal(t, Stats{Count: 1, TotalValue: -1, Prior: 0.5}, stats.At(0))
	assert.Equal(t, Stats{Prior: 0.5}, stats.At(1))

	tree.Simulate(root, 1)
	stats = tree.Node(root).Stats()
	assert.Equal(t, Stats{Count: 1, TotalValue: 1, Prior: 0.5}, stats.At(1))
	assert.Equal(t, 2, tree.Node(root).Visits())
	assert.Equal(t, float32(0), tree.Node(root).Quality())
}

func TestSelectActionTies(t *testing.T) {
	tree := newHexTree(t, 4)
	a, child := tree.SelectAction(tree.Root())
	assert.Equal(t, game.Action(0), a)
	assert.Equal(t, tree.Node(tree.Root()).Children().At(0), child)

	// visited parent, unvisited actions: still tied
	tree.Node(tree.Root()).visits = 10
	a, _ = tree.SelectAction(tree.Root())
	assert.Equal(t, game.Action(0), a)
}

func TestSelectActionNeverComputesUnvisitedQuality(t *testing.T) {
	tree := newHexTree(t, 3, seeded(2))
	root := tree.Root()
	assert.NotPanics(t, func() {
		for i := 0; i < 200; i++ {
			tree.Simulate(root, 1)
			tree.SelectAction(root)
		}
	})
}

func TestExpandIsIdempotent(t *testing.T) {
	tree := newHexTree(t, 3)
	root := tree.Root()
	assert.False(t, tree.Node(root).IsExpanded())
	tree.nodes.Expand(root)
	require.True(t, tree.Node(root).IsExpanded())
	assert.Equal(t, 1+9, tree.Nodes())

	children := tree.Node(root).Children().Values()
	tree.nodes.Expand(root)
	tree.SelectAction(root)
	tree.Policy(root, 1)
	assert.Equal(t, 1+9, tree.Nodes())
	assert.Equal(t, children, tree.Node(root).Children().Values())
	for _, s := range tree.Node(root).Stats().All() {
		assert.Equal(t, Stats{Prior: 1 / float32(9)}, s)
	}

	// siblings do not share state
	s0 := tree.Node(children[0]).State().(*hex.Hex)
	s1 := tree.Node(children[1]).State().(*hex.Hex)
	assert.Equal(t, hex.Red, s0.Board().At(hex.Cell{I: 0, J: 0}))
	assert.Equal(t, hex.Nobody, s1.Board().At(hex.Cell{I: 0, J: 0}))
}

func TestUnexpandedAccessPanics(t *testing.T) {
	tree := newHexTree(t, 3)
	n := tree.Node(tree.Root())
	assert.Panics(t, func() { n.Stats() })
	assert.Panics(t, func() { n.Children() })
	assert.Panics(t, func() { tree.Node(NodeRef(5)) })
	assert.Panics(t, func() { tree.Node(nilNode) })
}

func TestQuality(t *testing.T) {
	assert.Panics(t, func() { Stats{}.Quality() })
	assert.Equal(t, float32(0.5), Stats{Count: 4, TotalValue: 2}.Quality())

	// Q is 0 until visited
	assert.Equal(t, float32(3*0.5*2), Stats{Prior: 0.5}.PUCT(4, 3))
	assert.InDelta(t, 0.5+3*0.5*2/5.0, Stats{Count: 4, TotalValue: 2, Prior: 0.5}.PUCT(4, 3), 1e-6)
}

func TestSimulateTerminal(t *testing.T) {
	tree := New(coin{flipped: 1}, DefaultConfig())
	root := tree.Root()
	tree.Simulate(root, 3)
	n := tree.Node(root)
	assert.Equal(t, 3, n.Visits())
	assert.False(t, n.IsExpanded())
	reward, terminal := n.Reward()
	assert.True(t, terminal)
	assert.Equal(t, float32(1), reward)
	assert.Panics(t, func() { tree.nodes.Expand(root) })
	assert.Empty(t, tree.ExecuteEpisode(10, 1))
}

func TestSampleLowTemperature(t *testing.T) {
	tree := newHexTree(t, 3, seeded(3))
	root := tree.Root()
	tree.nodes.Expand(root)
	counts := []int{3, 10, 1, 0, 7, 0, 0, 2, 0}
	for a, c := range counts {
		tree.Node(root).stats.Ptr(game.Action(a)).Count = c
	}

	for i := 0; i < 1000; i++ {
		a, child := tree.SampleAction(root, 0.01)
		require.Equal(t, game.Action(1), a)
		require.Equal(t, tree.Node(root).Children().At(1), child)
	}

	// at temperature 1, proportional to the counts
	var hits [9]int
	const draws = 5000
	for i := 0; i < draws; i++ {
		a, _ := tree.SampleAction(root, 1)
		hits[a]++
	}
	for a, c := range counts {
		if c == 0 {
			assert.Zero(t, hits[a], "action %d was never visited", a)
			continue
		}
		assert.InDelta(t, float64(c)/23, float64(hits[a])/draws, 0.03, "action %d", a)
	}
}

func TestSample(t *testing.T) {
	policy := []float32{0, 0.25, 0, 0.75, 0}
	assert.Equal(t, game.Action(1), sample(policy, 0))
	assert.Equal(t, game.Action(1), sample(policy, 0.25))
	assert.Equal(t, game.Action(3), sample(policy, 0.2500001))
	// rounding
	assert.Equal(t, game.Action(2), sample([]float32{0.3, 0.3, 0.3999}, 0.99995))
	assert.Equal(t, game.Action(3), sample(policy, 1.5))
	assert.Panics(t, func() { sample([]float32{0, 0}, 0.5) })
}

func TestPolicy(t *testing.T) {
	tree := newHexTree(t, 3, seeded(4))
	root := tree.Root()

	// unvisited is uniform
	policy := tree.Policy(root, 1)
	require.Len(t, policy, 9)
	for _, p := range policy {
		assert.InDelta(t, 1/9.0, p, 1e-6)
	}

	tree.Simulate(root, 100)
	for _, temp := range []float32{0.01, 0.5, 1, 2} {
		policy = tree.Policy(root, temp)
		assert.InDelta(t, 1, vecf32.Sum(policy), 1e-5, "temperature %v", temp)
	}
	policy = tree.Policy(root, 1)
	for a, s := range tree.Node(root).Stats().All() {
		assert.InDelta(t, float32(s.Count)/100, policy[a], 1e-5)
	}
}

func TestInferencerPriors(t *testing.T) {
	tree := New(mnk.New(1, 3, 3), DefaultConfig(), WithInferencer(favourLast(0.5)))
	root := tree.Root()
	tree.Simulate(root, 1)
	stats := tree.Node(root).Stats()
	assert.Equal(t, float32(0), stats.At(0).Prior)
	assert.Equal(t, float32(1), stats.At(2).Prior)

	tree.Simulate(root, 5)
	a, _ := tree.BestAction(root)
	assert.Equal(t, game.Action(2), a)

	// priors that sum to 0 are replaced with a uniform prior
	zeros := inferFunc(func(s game.State) ([]float32, float32) { return make([]float32, s.ActionCount()), 0 })
	tree = New(mnk.New(1, 3, 3), DefaultConfig(), WithInferencer(zeros))
	tree.nodes.Expand(tree.Root())
	for _, s := range tree.Node(tree.Root()).Stats().All() {
		assert.Equal(t, float32(1)/3, s.Prior)
	}

	// the wrong number of priors is a programmer error
	short := inferFunc(func(s game.State) ([]float32, float32) { return []float32{1}, 0 })
	tree = New(mnk.New(1, 3, 3), DefaultConfig(), WithInferencer(short))
	assert.Panics(t, func() { tree.Simulate(tree.Root(), 1) })
}

func TestLeafValueFromInferencer(t *testing.T) {
	tree := New(mnk.TicTacToe(), DefaultConfig(), WithInferencer(favourLast(0.5)))
	// the inferencer is consulted on the first child only, and the value is backed up
	tree.Simulate(tree.Root(), 1)
	stats := tree.Node(tree.Root()).Stats().At(0)
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, float32(-0.5), stats.TotalValue)
}

func TestHexEpisode(t *testing.T) {
	for seed := uint64(0); seed < 5; seed++ {
		tree := newHexTree(t, 3, seeded(seed))
		ep := tree.Play(20, 1)

		require.NotEmpty(t, ep.Examples)
		require.Len(t, ep.Path, len(ep.Examples))
		require.Len(t, ep.Actions, len(ep.Examples))

		final := tree.Node(ep.Terminal).State().(*hex.Hex)
		reward, terminal := final.Reward()
		require.True(t, terminal)
		assert.Equal(t, reward, ep.Reward)
		switch final.Winner() {
		case hex.Red:
			assert.Equal(t, float32(1), ep.Reward)
		case hex.Blue:
			assert.Equal(t, float32(-1), ep.Reward)
		default:
			t.Fatalf("seed %d: 3x3 hex ended without a winner", seed)
		}
		assert.Len(t, final.Taken(), len(ep.Examples))

		// values are replayed backwards from the terminal reward, flipping sign every move
		last := len(ep.Examples) - 1
		assert.Equal(t, -ep.Reward, ep.Examples[last].Value)
		for i := last - 1; i >= 0; i-- {
			assert.Equal(t, -ep.Examples[i+1].Value, ep.Examples[i].Value)
		}

		for i, ex := range ep.Examples {
			assert.InDelta(t, 1, vecf32.Sum(ex.Policy), 1e-5)
			assert.Greater(t, ex.Policy[ex.Action], float32(0))
			assert.Equal(t, tree.Node(ep.Path[i]).State().AsArray(), ex.State)
		}
		assert.Equal(t, hex.Red, tree.Node(ep.Path[0]).State().(*hex.Hex).Next())
	}
}

func TestTicTacToeEpisode(t *testing.T) {
	tree := New(mnk.TicTacToe(), DefaultConfig(), seeded(7))
	examples := tree.ExecuteEpisode(50, 1)
	require.NotEmpty(t, examples)
	require.LessOrEqual(t, len(examples), 9)

	last := examples[len(examples)-1]
	switch last.Value {
	case mnk.DrawReward:
		for _, ex := range examples {
			assert.Equal(t, mnk.DrawReward, ex.Value)
		}
	case 1:
		// the player who made the last move won
		for i := len(examples) - 2; i >= 0; i-- {
			assert.Equal(t, -examples[i+1].Value, examples[i].Value)
		}
	default:
		t.Errorf("unexpected last value %v", last.Value)
	}
}

func TestDirichletNoise(t *testing.T) {
	conf := DefaultConfig()
	conf.DirichletAlpha = 0.3
	conf.DirichletEpsilon = 0.25
	require.True(t, conf.IsValid())

	g, err := hex.New(3)
	require.NoError(t, err)
	tree := New(g, conf, seeded(11))
	root := tree.Root()
	tree.nodes.addNoise(root, conf.DirichletAlpha, conf.DirichletEpsilon, tree.rand)

	priors := make([]float32, 0, 9)
	for _, s := range tree.Node(root).Stats().All() {
		priors = append(priors, s.Prior)
	}
	assert.InDelta(t, 1, vecf32.Sum(priors), 1e-5)
	var differs bool
	for _, p := range priors {
		assert.GreaterOrEqual(t, p, float32(0.75/9)-1e-6)
		if p != priors[0] {
			differs = true
		}
	}
	assert.True(t, differs)

	// only once
	tree.nodes.addNoise(root, conf.DirichletAlpha, conf.DirichletEpsilon, tree.rand)
	for a, s := range tree.Node(root).Stats().All() {
		assert.Equal(t, priors[a], s.Prior)
	}

	ep := tree.Play(10, 1)
	assert.NotEmpty(t, ep.Examples)
}

func TestConfig(t *testing.T) {
	assert.True(t, DefaultConfig().IsValid())
	for _, c := range []Config{
		{ExploreFactor: 3, Temperature: 0, SimCount: 1},
		{ExploreFactor: 3, Temperature: 1, SimCount: 0},
		{ExploreFactor: -1, Temperature: 1, SimCount: 1},
		{ExploreFactor: 3, Temperature: 1, SimCount: 1, DirichletEpsilon: 2},
	} {
		assert.False(t, c.IsValid(), "%+v", c)
	}
}

func TestReset(t *testing.T) {
	tree := newHexTree(t, 3, seeded(5))
	tree.Simulate(tree.Root(), 30)
	require.Greater(t, tree.Nodes(), 1)
	tree.Reset()
	assert.Equal(t, 1, tree.Nodes())
	assert.False(t, tree.Node(tree.Root()).IsExpanded())
	assert.Equal(t, 9, tree.Node(tree.Root()).State().ActionCount())
}

func TestRanked(t *testing.T) {
	tree := New(coin{}, DefaultConfig())
	root := tree.Root()
	tree.Simulate(root, 10)
	assert.Equal(t, []game.Action{1, 0}, tree.Ranked(root))
	assert.Equal(t, []game.Action{1}, tree.PrincipalVariation(root))
}

func TestToDot(t *testing.T) {
	tree := New(coin{}, DefaultConfig())
	tree.Simulate(tree.Root(), 3)
	dot := tree.ToDot()
	assert.True(t, strings.HasPrefix(dot, "digraph G"))
	assert.Contains(t, dot, "n0")
	assert.Contains(t, dot, "n1")
	assert.Contains(t, dot, "n2")
	assert.Contains(t, dot, "N=2")
}
