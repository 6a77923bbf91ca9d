package searchrl

import (
	"github.com/gorgonia/searchrl/game"
	"github.com/gorgonia/searchrl/mcts"
	"github.com/pkg/errors"
)

type Config struct {
	Name        string      `yaml:"name"`
	MCTSConf    mcts.Config `yaml:"mcts"`
	Episodes    int         `yaml:"episodes"`
	MaxExamples int         `yaml:"max_examples"` // maximum number of examples kept by Run. 0 keeps everything
	Seed        uint64      `yaml:"seed"`         // 0 seeds from the clock

	// extensions
	Augmenter     Augmenter     `yaml:"-"`
	OutputEncoder OutputEncoder `yaml:"-"`
	ExampleWriter ExampleWriter `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		Name:     "UNKNOWN GAME",
		MCTSConf: mcts.DefaultConfig(),
		Episodes: 1,
	}
}

// IsValid returns an error describing the first problem with the config.
func (c Config) IsValid() error {
	if !c.MCTSConf.IsValid() {
		return errors.Errorf("MCTSConf is not valid: %+v", c.MCTSConf)
	}
	if c.Episodes < 0 {
		return errors.Errorf("Episodes must not be negative. Got %d", c.Episodes)
	}
	if c.MaxExamples < 0 {
		return errors.Errorf("MaxExamples must not be negative. Got %d", c.MaxExamples)
	}
	return nil
}

// OutputEncoder encodes the entire meta state as whatever.
//
// An example OutputEncoder is the GifEncoder. Another example would be a logger.
type OutputEncoder interface {
	Encode(ms game.MetaState) error
	Flush() error
}

// ExampleWriter receives the examples of every finished episode. An example ExampleWriter is the Parquet store.
type ExampleWriter interface {
	WriteExamples(episode int, examples []Example) error
}

// Augmenter takes an example, and creates more examples from it. The returned examples include the original.
type Augmenter func(a Example) []Example

// Example is a representation of an example, flattened for a trainer.
type Example struct {
	Board      []float32 // row major Rows x Cols
	Policy     []float32 // one entry per action of the state
	Value      float32
	Rows, Cols int
	Move       int // the move of the episode that the example was taken at. Augmented examples share it
}

// FromSearch flattens an example produced by the search. The Move is left to the caller.
func FromSearch(ex mcts.Example) Example {
	var cols int
	if len(ex.State) > 0 {
		cols = len(ex.State[0])
	}
	policy := make([]float32, len(ex.Policy))
	copy(policy, ex.Policy)
	return Example{
		Board:  EncodeArray(ex.State, nil),
		Policy: policy,
		Value:  ex.Value,
		Rows:   len(ex.State),
		Cols:   cols,
	}
}
