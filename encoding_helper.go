package searchrl

import (
	"github.com/gorgonia/searchrl/game"
	"github.com/pkg/errors"
)

// EncodeArray flattens the array snapshot of a state, row major.
func EncodeArray(a [][]int32, prealloc []float32) []float32 {
	var size int
	for _, row := range a {
		size += len(row)
	}
	if len(prealloc) != size {
		prealloc = make([]float32, size)
	}

	var k int
	for _, row := range a {
		for _, v := range row {
			prealloc[k] = float32(v)
			k++
		}
	}
	return prealloc
}

// RotateBoard rotates a square board by 90 degrees, in a copy.
func RotateBoard(board []float32, m, n int) ([]float32, error) {
	if m != n {
		return nil, errors.Errorf("Cannot handle m %d, n %d. This function only takes square boards", m, n)
	}
	if len(board) != m*n {
		return nil, errors.Errorf("Expected a board of %d cells. Got %d", m*n, len(board))
	}
	copied := make([]float32, len(board))
	copy(copied, board)
	it := game.MakeIterator(copied, m, n)
	for i := 0; i < m/2; i++ {
		mi1 := m - i - 1
		for j := i; j < mi1; j++ {
			mj1 := m - j - 1
			tmp := it[i][j]
			// right to top
			it[i][j] = it[j][mi1]

			// bottom to right
			it[j][mi1] = it[mi1][mj1]

			// left to bottom
			it[mi1][mj1] = it[mj1][i]

			// tmp is left
			it[mj1][i] = tmp
		}
	}
	return copied, nil
}

// Rotate180Augmenter adds the half turn rotation of an example of a game whose actions are the empty cells
// of a square board in row major order, such as hex. Under a half turn the order of the empty cells reverses,
// so the policy is reversed.
func Rotate180Augmenter(ex Example) []Example {
	rot1, err := RotateBoard(ex.Board, ex.Rows, ex.Cols)
	if err != nil {
		return []Example{ex}
	}
	rot2, _ := RotateBoard(rot1, ex.Rows, ex.Cols)

	policy := make([]float32, len(ex.Policy))
	for i, p := range ex.Policy {
		policy[len(policy)-1-i] = p
	}
	return []Example{ex, {
		Board:  rot2,
		Policy: policy,
		Value:  ex.Value,
		Rows:   ex.Rows,
		Cols:   ex.Cols,
		Move:   ex.Move,
	}}
}
