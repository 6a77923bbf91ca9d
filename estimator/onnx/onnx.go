// Package onnx runs an exported policy/value network with ONNX Runtime, as the estimator of a search tree.
//
// The model takes a single "input" of shape [1, 1, rows, cols] holding the board,
// and produces "policy" logits of shape [1, rows*cols] and a "value" of shape [1, 1].
package onnx

import (
	"os"
	"sync"

	"github.com/chewxy/math32"
	"github.com/gorgonia/searchrl"
	"github.com/gorgonia/searchrl/game"
	"github.com/gorgonia/searchrl/mcts"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// Inferer is a mcts.Inferencer backed by an ONNX Runtime session.
type Inferer struct {
	session    *ort.DynamicAdvancedSession
	rows, cols int
}

var _ mcts.Inferencer = &Inferer{}

// New loads the model for boards of rows x cols.
// The runtime library is looked up in ORT_SHARED_LIBRARY_PATH if it is set.
func New(modelPath string, rows, cols int) (*Inferer, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Errorf("Invalid board shape %dx%d", rows, cols)
	}
	if p := os.Getenv("ORT_SHARED_LIBRARY_PATH"); p != "" {
		ort.SetSharedLibraryPath(p)
	}
	ortInitOnce.Do(func() {
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, errors.Wrap(ortInitErr, "failed to init ort")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer options.Destroy()

	// the search calls the estimator from a single goroutine
	if err := options.SetIntraOpNumThreads(1); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := options.SetInterOpNumThreads(1); err != nil {
		return nil, errors.WithStack(err)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{"input"}, []string{"policy", "value"}, options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create session for %v", modelPath)
	}
	return &Inferer{session: session, rows: rows, cols: cols}, nil
}

// Infer runs the model on the state. It panics if the runtime fails, as the search has no way of recovering.
func (inf *Inferer) Infer(state game.State) (policy []float32, value float32) {
	logits, value, err := inf.run(state)
	if err != nil {
		panic(err)
	}
	return Priors(state, logits), value
}

func (inf *Inferer) run(state game.State) ([]float32, float32, error) {
	board := state.AsArray()
	var cols int
	if len(board) > 0 {
		cols = len(board[0])
	}
	if len(board) != inf.rows || cols != inf.cols {
		return nil, 0, errors.Errorf("Expected a %dx%d board. Got %dx%d", inf.rows, inf.cols, len(board), cols)
	}
	r, c := int64(inf.rows), int64(inf.cols)

	input, err := ort.NewTensor(ort.NewShape(1, 1, r, c), searchrl.EncodeArray(board, nil))
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	defer input.Destroy()

	policy, err := ort.NewEmptyTensor[float32](ort.NewShape(1, r*c))
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	defer policy.Destroy()

	value, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	defer value.Destroy()

	if err := inf.session.Run([]ort.Value{input}, []ort.Value{policy, value}); err != nil {
		return nil, 0, errors.Wrap(err, "inference failed")
	}

	// the tensor data is freed with the tensor
	logits := make([]float32, len(policy.GetData()))
	copy(logits, policy.GetData())
	return logits, value.GetData()[0], nil
}

// Close releases the session.
func (inf *Inferer) Close() error {
	return errors.WithStack(inf.session.Destroy())
}

// Priors picks the logits of the state's actions out of a per-cell output and turns them into a distribution.
//
// If the state is a game.CellIndexer, action a reads logits[state.CellIndex(a)]. Otherwise action a reads logits[a].
func Priors(state game.State, logits []float32) []float32 {
	n := state.ActionCount()
	ci, isCells := state.(game.CellIndexer)

	retVal := make([]float32, n)
	top := math32.Inf(-1)
	for a := range game.Actions(state) {
		idx := int(a)
		if isCells {
			idx = ci.CellIndex(a)
		}
		if idx < 0 || idx >= len(logits) {
			panic(game.IndexOutOfRange{Index: idx, Len: len(logits)})
		}
		retVal[a] = logits[idx]
		if retVal[a] > top {
			top = retVal[a]
		}
	}

	// softmax over the legal actions only
	var sum float32
	for i, v := range retVal {
		retVal[i] = math32.Exp(v - top)
		sum += retVal[i]
	}
	for i := range retVal {
		retVal[i] /= sum
	}
	return retVal
}
