package mcts

import (
	"math/rand/v2"

	"github.com/gorgonia/searchrl/game"
)

// Inferencer is essentially the neural network.
//
// Infer returns one prior per action of the state, in action order, and the estimated value of the state.
type Inferencer interface {
	Infer(state game.State) (policy []float32, value float32)
}

// Uniform is an Inferencer that knows nothing: every action is equally likely and every state is worth 0.
type Uniform struct{}

func (Uniform) Infer(state game.State) (policy []float32, value float32) {
	n := state.ActionCount()
	policy = make([]float32, n)
	for i := range policy {
		policy[i] = 1 / float32(n)
	}
	return policy, 0
}

// Config is the structure to configure the search tree.
type Config struct {
	ExploreFactor float32 `yaml:"explore"`     // the e in the PUCT formula
	Temperature   float32 `yaml:"temperature"` // sampling temperature for committed moves
	SimCount      int     `yaml:"simulations"` // simulations per committed move

	// Dirichlet noise mixed into the priors of every node that a move is committed from. Disabled if either is 0.
	DirichletAlpha   float64 `yaml:"dirichlet_alpha"`
	DirichletEpsilon float64 `yaml:"dirichlet_epsilon"`
}

func DefaultConfig() Config {
	return Config{
		ExploreFactor: 3.0,
		Temperature:   1.0,
		SimCount:      100,
	}
}

func (c Config) IsValid() bool {
	return c.ExploreFactor >= 0 &&
		c.Temperature > 0 &&
		c.SimCount > 0 &&
		c.DirichletAlpha >= 0 &&
		c.DirichletEpsilon >= 0 && c.DirichletEpsilon <= 1
}

func (c Config) noisy() bool { return c.DirichletAlpha > 0 && c.DirichletEpsilon > 0 }

// Option configures a Tree.
type Option func(*Tree)

// WithInferencer sets the estimator used for priors and leaf values. The default is Uniform.
func WithInferencer(nn Inferencer) Option {
	return func(t *Tree) { t.nodes.nn = nn }
}

// WithRand sets the random source used for sampling moves and generating noise.
// Deterministic runs need a seeded source.
func WithRand(r *rand.Rand) Option {
	return func(t *Tree) { t.rand = r }
}
