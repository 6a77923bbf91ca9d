package onnx

import (
	"os"
	"testing"

	"github.com/chewxy/math32"
	"github.com/gorgonia/searchrl/game"
	"github.com/gorgonia/searchrl/game/c4"
	"github.com/gorgonia/searchrl/game/hex"
	"github.com/gorgonia/searchrl/mcts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/vecf32"
)

func TestPriorsFollowCells(t *testing.T) {
	g, err := hex.New(2)
	require.NoError(t, err)
	g.Play(hex.Cell{I: 0, J: 0})

	// the occupied cell has the largest logit, and must be ignored
	logits := []float32{10, 0, 0, math32.Log(2)}
	priors := Priors(g, logits)
	require.Len(t, priors, 3)
	assert.InDelta(t, 0.25, priors[0], 1e-5)
	assert.InDelta(t, 0.25, priors[1], 1e-5)
	assert.InDelta(t, 0.5, priors[2], 1e-5)
	assert.InDelta(t, 1, vecf32.Sum(priors), 1e-5)
}

func TestPriorsConnect4(t *testing.T) {
	s := c4.New(3, 4, 3).Init().Take(1)

	// one logit per cell of the 3x4 board; column 1 now lands on the middle row
	logits := make([]float32, 12)
	logits[2*4+1] = 100 // the occupied cell
	logits[1*4+1] = math32.Log(2)
	priors := Priors(s, logits)
	require.Len(t, priors, 4)
	assert.InDelta(t, 0.2, priors[0], 1e-5)
	assert.InDelta(t, 0.4, priors[1], 1e-5)
	assert.InDelta(t, 0.2, priors[2], 1e-5)
	assert.InDelta(t, 0.2, priors[3], 1e-5)
}

type line struct{ left int }

func (l line) Init() game.State                       { return line{left: 3} }
func (l line) ActionCount() int                       { return l.left }
func (l line) Take(a game.Action) game.State          { return line{left: l.left - 1} }
func (l line) Reward() (float32, bool)                { return 0, l.left == 0 }
func (l line) Value(a game.Action, v float32) float32 { return -v }
func (l line) AsArray() [][]int32                     { return [][]int32{{int32(l.left)}} }

func TestPriorsByActionIndex(t *testing.T) {
	priors := Priors(line{left: 2}, []float32{0, 0, 100})
	assert.Equal(t, []float32{0.5, 0.5}, priors)

	assert.Panics(t, func() { Priors(line{left: 3}, []float32{0, 0}) })
}

func TestNewInvalidSize(t *testing.T) {
	_, err := New("model.onnx", 0, 3)
	assert.Error(t, err)
	_, err = New("model.onnx", 6, -7)
	assert.Error(t, err)
}

// TestInferer needs a runtime and a model exported for 3x3 boards.
func TestInferer(t *testing.T) {
	modelPath := os.Getenv("HEX_ONNX_MODEL")
	if modelPath == "" {
		t.Skip("HEX_ONNX_MODEL is not set")
	}
	inf, err := New(modelPath, 3, 3)
	require.NoError(t, err)
	defer inf.Close()

	g, err := hex.New(3)
	require.NoError(t, err)
	policy, value := inf.Infer(g)
	assert.Len(t, policy, 9)
	assert.InDelta(t, 1, vecf32.Sum(policy), 1e-4)
	assert.False(t, math32.IsNaN(value))

	tree := mcts.New(g, mcts.DefaultConfig(), mcts.WithInferencer(inf))
	tree.Simulate(tree.Root(), 10)
	assert.Equal(t, 10, tree.Node(tree.Root()).Visits())

	small, err := hex.New(2)
	require.NoError(t, err)
	assert.Panics(t, func() { inf.Infer(small) })
}
