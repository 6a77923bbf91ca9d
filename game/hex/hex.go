// Package hex implements the game of Hex as a game.State.
//
// Red moves first and tries to connect row 1 to row N. Blue tries to connect column A to the last column.
// The actions of a position are its empty cells, enumerated in row major (column, then row) order.
package hex

import (
	"fmt"

	"github.com/gorgonia/searchrl/game"
	"github.com/pkg/errors"
)

// DrawReward is the sentinel reward of a drawn game. Value passes it through unchanged.
const DrawReward float32 = 0.1

var (
	_ game.State       = &Hex{}
	_ game.CellIndexer = &Hex{}
)

// Hex is a game of Hex in progress.
type Hex struct {
	board  *Board
	empty  map[Cell]struct{}
	taken  []Cell
	next   Player
	winner Player
}

// New creates a game on an empty NxN board.
func New(n int) (*Hex, error) {
	board, err := NewBoard(n)
	if err != nil {
		return nil, errors.WithMessage(err, "hex.New")
	}
	return newGame(board), nil
}

func newGame(board *Board) *Hex {
	n := board.Size()
	empty := make(map[Cell]struct{}, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			empty[Cell{i, j}] = struct{}{}
		}
	}
	return &Hex{
		board: board,
		empty: empty,
		next:  Red,
	}
}

// Init returns an empty game of the same size.
func (h *Hex) Init() game.State { return newGame(newBoard(h.board.Size())) }

// ActionCount is the number of empty cells.
func (h *Hex) ActionCount() int { return len(h.empty) }

// Take plays the cell that the action refers to on a copy of the game.
func (h *Hex) Take(a game.Action) game.State {
	c := h.Cell(a)
	retVal := h.Clone()
	retVal.Play(c)
	return retVal
}

// Reward is DrawReward for a draw, 1 if Red has won and -1 if Blue has won.
func (h *Hex) Reward() (reward float32, terminal bool) {
	switch {
	case h.IsDraw():
		return DrawReward, true
	case h.winner == Red:
		return 1, true
	case h.winner == Blue:
		return -1, true
	}
	return 0, false
}

// Value negates the value of the following position, except for the draw sentinel.
func (h *Hex) Value(taken game.Action, value float32) float32 {
	if value == DrawReward {
		return value
	}
	return -value
}

func (h *Hex) AsArray() [][]int32 { return h.board.AsArray() }

// Play places the next player's stone on c. It returns true if the move won the game.
// Playing on an occupied or off-board cell panics.
func (h *Hex) Play(c Cell) bool {
	if !h.board.contains(c) {
		panic(fmt.Sprintf("hex: %v is not on a %dx%d board", c, h.board.Size(), h.board.Size()))
	}
	if _, ok := h.empty[c]; !ok {
		panic(fmt.Sprintf("hex: %v is occupied by %v", c, h.board.At(c)))
	}
	p := h.next
	h.board.Set(c, p)
	delete(h.empty, c)
	h.taken = append(h.taken, c)
	h.next = p.Other()

	won := h.board.wins(p)
	if won && h.winner == Nobody {
		h.winner = p
	}
	return won
}

// Undo takes back every move, leaving an empty board with Red to move.
func (h *Hex) Undo() {
	for len(h.taken) > 0 {
		c := h.taken[len(h.taken)-1]
		h.taken = h.taken[:len(h.taken)-1]
		h.board.Clear(c)
		h.empty[c] = struct{}{}
	}
	h.next = Red
	h.winner = Nobody
}

// Next is the player to move.
func (h *Hex) Next() Player { return h.next }

// Winner returns Nobody while the game is undecided.
func (h *Hex) Winner() Player { return h.winner }

// IsDraw is true when the board is full and nobody has won. On a hex board this cannot happen through play.
func (h *Hex) IsDraw() bool { return h.winner == Nobody && len(h.empty) == 0 }

func (h *Hex) Board() *Board { return h.board }

// EmptyCells returns the empty cells in action order.
func (h *Hex) EmptyCells() []Cell {
	retVal := make([]Cell, 0, len(h.empty))
	n := h.board.Size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if h.board.it[i][j] == Nobody {
				retVal = append(retVal, Cell{i, j})
			}
		}
	}
	return retVal
}

// Taken returns the cells played so far, in order.
func (h *Hex) Taken() []Cell {
	retVal := make([]Cell, len(h.taken))
	copy(retVal, h.taken)
	return retVal
}

// Cell returns the cell that the action refers to.
func (h *Hex) Cell(a game.Action) Cell {
	game.CheckAction(h, a)
	k := a.Index()
	n := h.board.Size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if h.board.it[i][j] != Nobody {
				continue
			}
			if k == 0 {
				return Cell{i, j}
			}
			k--
		}
	}
	panic("Unreachable")
}

// CellIndex returns i*N + j of the cell that the action refers to.
func (h *Hex) CellIndex(a game.Action) int {
	c := h.Cell(a)
	return c.I*h.board.Size() + c.J
}

func (h *Hex) Clone() *Hex {
	empty := make(map[Cell]struct{}, len(h.empty))
	for c := range h.empty {
		empty[c] = struct{}{}
	}
	taken := make([]Cell, len(h.taken), cap(h.taken))
	copy(taken, h.taken)
	return &Hex{
		board:  h.board.clone(),
		empty:  empty,
		taken:  taken,
		next:   h.next,
		winner: h.winner,
	}
}

func (h *Hex) Format(s fmt.State, c rune) {
	h.board.Format(s, c)
	switch {
	case h.winner != Nobody:
		fmt.Fprintf(s, "\n%v wins", h.winner)
	case h.IsDraw():
		fmt.Fprint(s, "\ndraw")
	default:
		fmt.Fprintf(s, "\n%v to move", h.next)
	}
}
