package hex

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
)

// MaxSize is the largest supported board. Columns are rendered as letters.
const MaxSize = 26

// Player is the occupant of a cell.
type Player uint8

const (
	Nobody Player = iota
	Red
	Blue
)

// Other returns the opponent.
func (p Player) Other() Player {
	switch p {
	case Red:
		return Blue
	case Blue:
		return Red
	}
	panic("Unreachable")
}

func (p Player) String() string {
	switch p {
	case Red:
		return "R"
	case Blue:
		return "B"
	}
	return "_"
}

// isEnd returns true if the cell lies on the player's end edge.
// Red connects row 1 to row N, Blue connects column A to the last column.
func (p Player) isEnd(c Cell, n int) bool {
	switch p {
	case Red:
		return c.J == n-1
	case Blue:
		return c.I == n-1
	}
	return false
}

// startCell returns the k-th cell of the player's start edge.
func (p Player) startCell(k int) Cell {
	if p == Red {
		return Cell{I: k, J: 0}
	}
	return Cell{I: 0, J: k}
}

// Cell is a board coordinate. I is the column (rendered as a letter), J is the row (rendered 1-based).
type Cell struct {
	I, J int
}

// CellAt makes a cell out of a column and a 1-based row number, the way cells are written (e.g. CellAt(2, 3) is C3).
func CellAt(i, row int) Cell { return Cell{I: i, J: row - 1} }

func (c Cell) String() string { return fmt.Sprintf("%c%d", 'A'+rune(c.I), c.J+1) }

// Board is a NxN hex board.
type Board struct {
	data *tensor.Dense
	it   [][]Player // it[i][j]
	n    int
}

// NewBoard creates an empty board of the given size.
func NewBoard(n int) (*Board, error) {
	if n < 1 || n > MaxSize {
		return nil, errors.Errorf("hex: board size %d out of range [1, %d]", n, MaxSize)
	}
	return newBoard(n), nil
}

func newBoard(n int) *Board {
	backing := make([]Player, n*n)
	data := tensor.New(tensor.WithShape(n, n), tensor.WithBacking(backing))
	iter, err := native.Matrix(data)
	if err != nil {
		panic(err)
	}
	return &Board{
		data: data,
		it:   iter.([][]Player),
		n:    n,
	}
}

func (b *Board) Size() int { return b.n }

func (b *Board) contains(c Cell) bool { return c.I >= 0 && c.I < b.n && c.J >= 0 && c.J < b.n }

// At returns the occupant of the cell.
func (b *Board) At(c Cell) Player { return b.it[c.I][c.J] }

// Set places the player on the cell, returning the previous occupant.
func (b *Board) Set(c Cell, p Player) Player {
	prev := b.it[c.I][c.J]
	b.it[c.I][c.J] = p
	return prev
}

func (b *Board) Clear(c Cell) { b.it[c.I][c.J] = Nobody }

// Neighbours returns the cells adjacent to c, in the order
// (i+1,j-1), (i,j-1), (i-1,j), (i+1,j), (i-1,j+1), (i,j+1).
func (b *Board) Neighbours(c Cell) []Cell {
	retVal := make([]Cell, 0, 6)
	for _, d := range adjacency {
		nb := Cell{I: c.I + d.I, J: c.J + d.J}
		if b.contains(nb) {
			retVal = append(retVal, nb)
		}
	}
	return retVal
}

var adjacency = [6]Cell{
	{1, -1},
	{0, -1},
	{-1, 0},
	{1, 0},
	{-1, 1},
	{0, 1},
}

// AsArray encodes Red as 1, Blue as -1 and empty cells as 0. The array is indexed [i][j].
func (b *Board) AsArray() [][]int32 {
	retVal := make([][]int32, b.n)
	for i, col := range b.it {
		retVal[i] = make([]int32, b.n)
		for j, p := range col {
			switch p {
			case Red:
				retVal[i][j] = 1
			case Blue:
				retVal[i][j] = -1
			}
		}
	}
	return retVal
}

// wins checks whether p connects its start edge to its end edge.
func (b *Board) wins(p Player) bool {
	seen := make(map[Cell]struct{})
	for k := 0; k < b.n; k++ {
		start := p.startCell(k)
		if b.At(start) != p {
			continue
		}
		if b.winsFrom(p, start, seen) {
			return true
		}
	}
	return false
}

// winsFrom is a depth first search over the cells occupied by p. Cells are marked on entry and unmarked when backtracking.
func (b *Board) winsFrom(p Player, c Cell, seen map[Cell]struct{}) bool {
	if _, ok := seen[c]; ok {
		return false
	}
	if b.At(c) != p {
		return false
	}
	if p.isEnd(c, b.n) {
		return true
	}
	seen[c] = struct{}{}
	for _, nb := range b.Neighbours(c) {
		if b.winsFrom(p, nb, seen) {
			return true
		}
	}
	delete(seen, c)
	return false
}

func (b *Board) clone() *Board {
	b2 := newBoard(b.n)
	raw2 := b2.data.Data().([]Player)
	raw := b.data.Data().([]Player)
	copy(raw2, raw)
	return b2
}

// Format renders the board with column letters and 1-based row numbers. Each row is shifted right by one more space than the last.
func (b *Board) Format(s fmt.State, c rune) {
	fmt.Fprint(s, "   ")
	for i := 0; i < b.n; i++ {
		fmt.Fprintf(s, " %c", 'A'+rune(i))
	}
	for j := 0; j < b.n; j++ {
		fmt.Fprintf(s, "\n%*s%2d ", j, "", j+1)
		for i := 0; i < b.n; i++ {
			fmt.Fprintf(s, " %v", b.it[i][j])
		}
	}
}
