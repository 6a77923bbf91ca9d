package game

// MakeIterator makes a rowmajor 2D view of a flat board. The rows share memory with board.
func MakeIterator[T any](board []T, m, n int) (retVal [][]T) {
	retVal = make([][]T, m)
	for i := range retVal {
		start := i * n
		retVal[i] = board[start : start+n : start+n]
	}
	return
}
