// Command hexzero plays self-play episodes of Hex with a PUCT search and writes out what it learned from them.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/gorgonia/searchrl"
	"github.com/gorgonia/searchrl/encoding/gif"
	"github.com/gorgonia/searchrl/estimator/onnx"
	"github.com/gorgonia/searchrl/game"
	"github.com/gorgonia/searchrl/game/c4"
	"github.com/gorgonia/searchrl/game/hex"
	"github.com/gorgonia/searchrl/game/mnk"
	"github.com/gorgonia/searchrl/mcts"
	"github.com/gorgonia/searchrl/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var (
	configFile  = flag.String("config", "", "YAML file to read the configuration from. Flags that are set override it")
	gameName    = flag.String("game", "hex", "game to play: hex, tictactoe or connect4")
	size        = flag.Int("size", 7, "size of the Hex board")
	episodes    = flag.Int("episodes", 10, "number of episodes to play")
	sims        = flag.Int("sims", 200, "simulations per move")
	explore     = flag.Float64("explore", 3, "exploration factor of the PUCT formula")
	temperature = flag.Float64("temperature", 1, "temperature used to sample moves")
	alpha       = flag.Float64("alpha", 0, "Dirichlet noise concentration. 0 disables noise")
	epsilon     = flag.Float64("epsilon", 0.25, "weight of the Dirichlet noise")
	seed        = flag.Uint64("seed", 0, "random seed. 0 seeds from the clock")
	maxExamples = flag.Int("max", 0, "maximum number of examples to keep. 0 keeps all")
	outDir      = flag.String("out", "", "directory to write Parquet examples into")
	gifFile     = flag.String("gif", "", "file to write an animated GIF of every episode into")
	dotFile     = flag.String("dot", "", "file to write the Graphviz search tree of the last episode into")
	statsFile   = flag.String("stats", "", "file to write per episode statistics (CSV) into")
	model       = flag.String("model", "", "ONNX model to use as the estimator. Uniform priors are used if empty")
	verbose     = flag.Bool("v", false, "debug logging")
)

// fileConfig is the layout of the -config file.
type fileConfig struct {
	searchrl.Config `yaml:",inline"`
	Game            string `yaml:"game"`
	Size            int    `yaml:"size"`
}

func main() {
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("hexzero failed")
	}
}

func run() error {
	fc, err := loadConfig()
	if err != nil {
		return err
	}
	conf := fc.Config
	log.Debug().Interface("config", conf).Msg("loaded configuration")

	var g game.State
	switch fc.Game {
	case "hex":
		if g, err = hex.New(fc.Size); err != nil {
			return err
		}
	case "tictactoe":
		g = mnk.TicTacToe()
	case "connect4":
		g = c4.Connect4()
	default:
		return errors.Errorf("Unknown game %q", fc.Game)
	}

	var opts []mcts.Option
	if *model != "" {
		board := g.AsArray()
		inf, err := onnx.New(*model, len(board), len(board[0]))
		if err != nil {
			return err
		}
		defer inf.Close()
		opts = append(opts, mcts.WithInferencer(inf))
	}

	if *outDir != "" {
		w, err := store.NewWriter(*outDir, conf.Name)
		if err != nil {
			return err
		}
		conf.ExampleWriter = w
	}

	var enc *gif.Encoder
	if *gifFile != "" {
		f, err := os.Create(*gifFile)
		if err != nil {
			return errors.WithStack(err)
		}
		defer f.Close()
		enc = gif.NewGifEncoder(1080, 1920, f)
		conf.OutputEncoder = enc
	}

	sp, err := searchrl.New(g, conf, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	examples, err := sp.Run(ctx, conf.Episodes)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Int("examples", len(examples)).Interface("outcomes", sp.Outcomes).Msg("done")

	if enc != nil && enc.Frames() > 0 {
		if err := enc.Flush(); err != nil {
			return err
		}
	}
	if *statsFile != "" {
		if err := sp.Dump(*statsFile); err != nil {
			return err
		}
	}
	if *dotFile != "" && sp.Tree() != nil {
		if err := os.WriteFile(*dotFile, []byte(sp.Tree().ToDot()), 0o644); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// loadConfig reads the -config file if any, then applies the flags that were explicitly set.
func loadConfig() (fileConfig, error) {
	fc := fileConfig{
		Config: searchrl.DefaultConfig(),
		Game:   *gameName,
		Size:   *size,
	}
	fc.Name = "Hex"
	fc.MCTSConf.ExploreFactor = float32(*explore)
	fc.MCTSConf.Temperature = float32(*temperature)
	fc.MCTSConf.SimCount = *sims
	fc.MCTSConf.DirichletAlpha = *alpha
	fc.MCTSConf.DirichletEpsilon = *epsilon
	fc.Episodes = *episodes
	fc.MaxExamples = *maxExamples
	fc.Seed = *seed

	if *configFile != "" {
		bs, err := os.ReadFile(*configFile)
		if err != nil {
			return fc, errors.WithStack(err)
		}
		if err := yaml.Unmarshal(bs, &fc); err != nil {
			return fc, errors.Wrapf(err, "Unable to parse %v", *configFile)
		}
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "game":
				fc.Game = *gameName
			case "size":
				fc.Size = *size
			case "episodes":
				fc.Episodes = *episodes
			case "sims":
				fc.MCTSConf.SimCount = *sims
			case "explore":
				fc.MCTSConf.ExploreFactor = float32(*explore)
			case "temperature":
				fc.MCTSConf.Temperature = float32(*temperature)
			case "alpha":
				fc.MCTSConf.DirichletAlpha = *alpha
			case "epsilon":
				fc.MCTSConf.DirichletEpsilon = *epsilon
			case "seed":
				fc.Seed = *seed
			case "max":
				fc.MaxExamples = *maxExamples
			}
		})
	}
	if fc.Name == "Hex" {
		switch fc.Game {
		case "tictactoe":
			fc.Name = "Tic Tac Toe"
		case "connect4":
			fc.Name = "Connect Four"
		}
	}
	if err := fc.IsValid(); err != nil {
		return fc, err
	}
	return fc, nil
}
