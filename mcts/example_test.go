package mcts_test

import (
	"fmt"
	"math/rand/v2"

	"github.com/gorgonia/searchrl/game"
	"github.com/gorgonia/searchrl/game/hex"
	"github.com/gorgonia/searchrl/mcts"
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
func (c coin) Take(a game.Action) game.State { return coin{flipped: int(a) + 1} }
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

func ExampleTree_Simulate() {
	t := mcts.New(coin{}, mcts.DefaultConfig())
	t.Simulate(t.Root(), 10)

	root := t.Node(t.Root())
	for a, s := range root.Stats().All() {
		fmt.Printf("action %d: N=%d Q=%v\n", a, s.Count, s.Quality())
	}
	fmt.Printf("policy: %.2f\n", t.Policy(t.Root(), 1))

	// Output:
	// action 0: N=1 Q=-1
	// action 1: N=9 Q=1
	// policy: [0.10 0.90]
}

func ExampleTree_Play() {
	g, _ := hex.New(3)
	conf := mcts.DefaultConfig()
	t := mcts.New(g, conf, mcts.WithRand(rand.New(rand.NewPCG(1337, 1337))))
	ep := t.Play(conf.SimCount, conf.Temperature)

	final := t.Node(ep.Terminal).State().(*hex.Hex)
	_, terminal := final.Reward()
	last := ep.Examples[len(ep.Examples)-1]
	fmt.Println("terminal:", terminal)
	fmt.Println("one example per move:", len(ep.Examples) == len(final.Taken()))
	fmt.Println("decided:", final.Winner() != hex.Nobody)
	fmt.Println("last value is the negated reward:", last.Value == -ep.Reward)

	// Output:
	// terminal: true
	// one example per move: true
	// decided: true
	// last value is the negated reward: true
}
