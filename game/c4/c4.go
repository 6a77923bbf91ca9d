package c4

import (
	"fmt"

	"github.com/gorgonia/searchrl/game"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
)

// Board is a rows x cols grid. Row 0 is the top.
type Board struct {
	data *tensor.Dense
	it   [][]game.Colour
	n    int // how many to be considered a win?
}

func newBoard(rows, cols, n int) *Board {
	backing := make([]game.Colour, rows*cols)
	data := tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(backing))
	iter, err := native.Matrix(data)
	if err != nil {
		panic(err)
	}
	it := iter.([][]game.Colour)
	return &Board{
		data: data,
		it:   it,
		n:    n,
	}
}

func (b *Board) Format(s fmt.State, c rune) {
	switch c {
	case 's', 'v':
		for _, row := range b.it {
			fmt.Fprint(s, "⎢ ")
			for _, col := range row {
				fmt.Fprintf(s, "%s ", col)
			}
			fmt.Fprint(s, "⎥\n")
		}
	}
}

func (b *Board) rows() int { return b.data.Shape()[0] }
func (b *Board) cols() int { return b.data.Shape()[1] }

func (b *Board) raw() []game.Colour { return b.data.Data().([]game.Colour) }

// full reports whether a column has no room left.
func (b *Board) full(col int) bool { return b.it[0][col] != game.None }

// landing returns the row that a piece dropped into the column comes to rest on, or -1 if the column is full.
func (b *Board) landing(col int) int {
	for row := b.rows() - 1; row >= 0; row-- {
		if b.it[row][col] == game.None {
			return row
		}
	}
	return -1
}

// drop lets a piece fall down the column, and returns the row it lands on.
func (b *Board) drop(col int, c game.Colour) int {
	row := b.landing(col)
	if row < 0 {
		panic(fmt.Sprintf("column %d is full", col))
	}
	b.it[row][col] = c
	return row
}

func (b *Board) clone() *Board {
	b2 := newBoard(b.rows(), b.cols(), b.n)
	copy(b2.raw(), b.raw())
	return b2
}

// checkWin returns the colour that has n in a line, or None.
func (b *Board) checkWin() game.Colour {
	rows, cols := b.rows(), b.cols()
	for _, d := range directions {
		if winner := b.checkLine(rows, cols, d[0], d[1]); winner != game.None {
			return winner
		}
	}
	return game.None
}

var directions = [4][2]int{
	{1, 0},  // downwards
	{0, 1},  // rightwards
	{1, -1}, // down and left
	{1, 1},  // down and right
}

func (b *Board) checkLine(rows, cols, dy, dx int) game.Colour {
	for x := 0; x < cols; x++ {
		for y := 0; y < rows; y++ {
			c := b.it[y][x]
			if c == game.None {
				continue
			}
			winning := true
			for i := 1; i < b.n && winning; i++ {
				yy, xx := y+i*dy, x+i*dx
				winning = yy >= 0 && yy < rows && xx >= 0 && xx < cols && b.it[yy][xx] == c
			}
			if winning {
				return c
			}
		}
	}
	return game.None
}
