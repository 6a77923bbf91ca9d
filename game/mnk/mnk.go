package mnk

import (
	"fmt"

	"github.com/gorgonia/searchrl/game"
)

// DrawReward is the reward of a game that ended without a winner.
const DrawReward float32 = 0.1

var (
	Cross  = game.Player(game.Black)
	Nought = game.Player(game.White)
)

var (
	_ game.State       = &MNK{}
	_ game.CellIndexer = &MNK{}
)

// MNK is a representation of M,N,K games - a game is played on a MxN board. K in a row to win.
//
// The actions of a position are its empty cells, in board order. Cross moves first.
type MNK struct {
	board   []game.Colour
	m, n, k int

	nextToMove game.Player
	moveNumber int
}

// New creates a new MNK game
func New(m, n, k int) *MNK {
	return &MNK{
		board:      make([]game.Colour, m*n),
		m:          m,
		n:          n,
		k:          k,
		nextToMove: Cross,
	}
}

// TicTacToe creates a new MNK game for Tic Tac Toe
func TicTacToe() *MNK { return New(3, 3, 3) }

func (g *MNK) Format(s fmt.State, c rune) {
	for i, c := range g.board {
		if i%g.n == 0 {
			fmt.Fprint(s, "⎢ ")
		}
		fmt.Fprintf(s, "%s ", c)
		if (i+1)%g.n == 0 && i != 0 {
			fmt.Fprint(s, "⎥\n")
		}
	}
}

func (g *MNK) BoardSize() (int, int) { return g.m, g.n }
func (g *MNK) Board() []game.Colour  { return g.board }
func (g *MNK) ToMove() game.Player   { return g.nextToMove }
func (g *MNK) MoveNumber() int       { return g.moveNumber }
func (g *MNK) Init() game.State      { return New(g.m, g.n, g.k) }

// AsArray encodes Cross as 1 and Nought as -1, in an MxN array.
func (g *MNK) AsArray() [][]int32 { return g.asArray() }

// CellIndex returns the board index of the cell that the action refers to.
func (g *MNK) CellIndex(a game.Action) int { return g.cell(a) }

// ActionCount is the number of empty cells.
func (g *MNK) ActionCount() int {
	var count int
	for _, c := range g.board {
		if c == game.None {
			count++
		}
	}
	return count
}

// Take places the next player's mark on the cell that the action refers to, in a copy of the game.
func (g *MNK) Take(a game.Action) game.State {
	idx := g.cell(a)
	retVal := g.Clone()
	retVal.board[idx] = game.Colour(g.nextToMove)
	retVal.nextToMove = g.nextToMove.Opponent()
	retVal.moveNumber++
	return retVal
}

// Reward is seen from the player to move: -1 if the other player completed a line,
// and DrawReward for a full board with no winner.
func (g *MNK) Reward() (reward float32, terminal bool) {
	ended, winner := g.Ended()
	if !ended {
		return 0, false
	}
	if winner != game.Player(game.None) {
		return -1, true
	}
	return DrawReward, true
}

// Value negates the value of the following position, except for the draw sentinel.
func (g *MNK) Value(taken game.Action, value float32) float32 {
	if value == DrawReward {
		return value
	}
	return -value
}

// Ended checks if the game has ended. If it has, who is the winner?
func (g *MNK) Ended() (ended bool, winner game.Player) {
	if g.isWinner(Cross) {
		return true, Cross
	}
	if g.isWinner(Nought) {
		return true, Nought
	}
	for _, c := range g.board {
		if c == game.None {
			return false, game.Player(game.None)
		}
	}
	return true, game.Player(game.None)
}

func (g *MNK) Clone() *MNK {
	retVal := New(g.m, g.n, g.k)
	copy(retVal.board, g.board)
	retVal.nextToMove = g.nextToMove
	retVal.moveNumber = g.moveNumber
	return retVal
}

// cell returns the board index of the a-th empty cell.
func (g *MNK) cell(a game.Action) int {
	game.CheckAction(g, a)
	k := a.Index()
	for i, c := range g.board {
		if c != game.None {
			continue
		}
		if k == 0 {
			return i
		}
		k--
	}
	panic("Unreachable")
}

func (g *MNK) asArray() [][]int32 {
	raw := make([]int32, len(g.board))
	for i, c := range g.board {
		switch game.Player(c) {
		case Cross:
			raw[i] = 1
		case Nought:
			raw[i] = -1
		}
	}
	return game.MakeIterator(raw, g.m, g.n)
}

var directions = [4][2]int{
	{0, 1},  // row
	{1, 0},  // col
	{1, 1},  // diagonal
	{1, -1}, // anti-diagonal
}

func (g *MNK) isWinner(p game.Player) bool {
	colour := game.Colour(p)
	for i := 0; i < g.m; i++ {
		for j := 0; j < g.n; j++ {
			if g.board[i*g.n+j] != colour {
				continue
			}
			for _, d := range directions {
				if g.run(i, j, d[0], d[1], colour) >= g.k {
					return true
				}
			}
		}
	}
	return false
}

// run counts the consecutive cells of the given colour, starting at (i, j) and stepping by (di, dj).
func (g *MNK) run(i, j, di, dj int, colour game.Colour) (count int) {
	for i >= 0 && i < g.m && j >= 0 && j < g.n && g.board[i*g.n+j] == colour {
		count++
		i += di
		j += dj
	}
	return
}
