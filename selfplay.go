package searchrl

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/chewxy/math32"
	"github.com/gorgonia/searchrl/game"
	"github.com/gorgonia/searchrl/mcts"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SelfPlay is the top level structure and the entry point of the API.
// It plays episodes against itself with a fresh search tree per episode, and turns them into training examples.
type SelfPlay struct {
	Statistics

	game game.State // start state
	conf Config
	opts []mcts.Option
	r    *rand.Rand

	// state of the episode being played
	current    game.State
	episode    int
	moveNumber int
	result     string
	tree       *mcts.Tree
}

var _ game.MetaState = &SelfPlay{}

// New creates a self-play driver for the game. The options are passed on to every search tree.
func New(g game.State, conf Config, opts ...mcts.Option) (*SelfPlay, error) {
	if err := conf.IsValid(); err != nil {
		return nil, errors.WithMessage(err, "Unable to proceed")
	}
	if conf.Name == "" {
		conf.Name = "UNKNOWN GAME"
	}
	seed := conf.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	r := rand.New(rand.NewPCG(seed, seed))

	// the caller's options come last so that they may override the random source
	opts = append([]mcts.Option{mcts.WithRand(r)}, opts...)
	return &SelfPlay{
		Statistics: makeStatistics(),
		game:       g.Init(),
		conf:       conf,
		opts:       opts,
		r:          r,
		current:    g.Init(),
	}, nil
}

func (sp *SelfPlay) Name() string      { return sp.conf.Name }
func (sp *SelfPlay) Episode() int      { return sp.episode }
func (sp *SelfPlay) MoveNumber() int   { return sp.moveNumber }
func (sp *SelfPlay) State() game.State { return sp.current }
func (sp *SelfPlay) Result() string    { return sp.result }

// Tree returns the search tree of the last episode.
func (sp *SelfPlay) Tree() *mcts.Tree { return sp.tree }

// Play plays an episode and returns its examples, augmented if an Augmenter is configured.
// The examples are handed to the ExampleWriter, and every move is rendered with the OutputEncoder.
func (sp *SelfPlay) Play() ([]Example, error) {
	sp.episode++
	start := time.Now()
	mconf := sp.conf.MCTSConf

	sp.tree = mcts.New(sp.game.Init(), mconf, sp.opts...)
	ep := sp.tree.Play(mconf.SimCount, mconf.Temperature)

	if err := sp.render(ep); err != nil {
		return nil, err
	}

	examples := make([]Example, 0, len(ep.Examples))
	for i, mex := range ep.Examples {
		ex := FromSearch(mex)
		ex.Move = i
		if !validPolicies(ex.Policy) {
			log.Warn().Int("episode", sp.episode).Msg("skipping an example with an invalid policy")
			continue
		}
		if sp.conf.Augmenter != nil {
			examples = append(examples, sp.conf.Augmenter(ex)...)
		} else {
			examples = append(examples, ex)
		}
	}

	if sp.conf.ExampleWriter != nil {
		if err := sp.conf.ExampleWriter.WriteExamples(sp.episode, examples); err != nil {
			return nil, errors.WithMessage(err, fmt.Sprintf("Unable to write the examples of episode %d", sp.episode))
		}
	}

	es := EpisodeStats{
		Episode:  sp.episode,
		Moves:    len(ep.Actions),
		Examples: len(examples),
		Nodes:    sp.tree.Nodes(),
		Reward:   ep.Reward,
		Duration: time.Since(start),
	}
	sp.update(es)
	log.Info().
		Str("game", sp.conf.Name).
		Int("episode", es.Episode).
		Int("moves", es.Moves).
		Int("nodes", es.Nodes).
		Float32("reward", es.Reward).
		Dur("took", es.Duration).
		Msg("episode finished")
	return examples, nil
}

// render replays the episode through the OutputEncoder, one frame per state.
func (sp *SelfPlay) render(ep mcts.Episode) error {
	states := make([]mcts.NodeRef, 0, len(ep.Path)+1)
	states = append(states, ep.Path...)
	states = append(states, ep.Terminal)

	sp.result = ""
	for i, ref := range states {
		sp.current = sp.tree.Node(ref).State()
		sp.moveNumber = i
		if i == len(states)-1 {
			sp.result = fmt.Sprintf("reward %v", ep.Reward)
		}
		if sp.conf.OutputEncoder == nil {
			continue
		}
		if err := sp.conf.OutputEncoder.Encode(sp); err != nil {
			return errors.WithMessage(err, fmt.Sprintf("Unable to encode move %d of episode %d", i, sp.episode))
		}
	}
	return nil
}

// Run plays episodes until done or the context is cancelled. The context is checked between episodes.
// If MaxExamples is set, a random subset of that many examples is returned.
func (sp *SelfPlay) Run(ctx context.Context, episodes int) ([]Example, error) {
	var retVal []Example
	for e := 0; e < episodes; e++ {
		if err := ctx.Err(); err != nil {
			log.Info().Int("played", e).Msg("self play cancelled")
			return retVal, errors.WithStack(err)
		}
		ex, err := sp.Play()
		if err != nil {
			return retVal, err
		}
		retVal = append(retVal, ex...)
	}

	if sp.conf.MaxExamples > 0 && len(retVal) > sp.conf.MaxExamples {
		sp.shuffleExamples(retVal)
		retVal = retVal[:sp.conf.MaxExamples]
	}
	log.Info().
		Int("episodes", len(sp.Episodes)).
		Float64("mean_length", sp.MeanLength()).
		Interface("outcomes", sp.Outcomes).
		Msg("self play done")
	return retVal, nil
}

func (sp *SelfPlay) shuffleExamples(examples []Example) {
	sp.r.Shuffle(len(examples), func(i, j int) {
		examples[i], examples[j] = examples[j], examples[i]
	})
}

func validPolicies(policy []float32) bool {
	for _, v := range policy {
		if math32.IsInf(v, 0) {
			return false
		}
		if math32.IsNaN(v) {
			return false
		}
	}
	return true
}
