// Package c4 implements Connect Four as a search environment.
package c4

import (
	"fmt"

	"github.com/gorgonia/searchrl/game"
)

// DrawReward is the reward of a full board without a winner.
const DrawReward float32 = 0.1

var (
	_ game.State       = &Game{}
	_ game.CellIndexer = &Game{}
)

// Game is an immutable Connect Four position. Black moves first.
//
// The actions of a position are the columns that still have room, from left to right.
type Game struct {
	b          *Board
	nextToMove game.Player
	moveCount  int
}

// New creates a new game with a board of (rows,cols) and N to win (connect4 being 4 to win)
func New(rows, cols, N int) *Game {
	return &Game{
		b:          newBoard(rows, cols, N),
		nextToMove: game.Player(game.Black),
	}
}

// Connect4 is the classic 6x7 game.
func Connect4() *Game { return New(6, 7, 4) }

func (g *Game) BoardSize() (int, int) { return g.b.rows(), g.b.cols() }
func (g *Game) ToMove() game.Player   { return g.nextToMove }
func (g *Game) MoveNumber() int       { return g.moveCount }
func (g *Game) Board() []game.Colour  { return g.b.raw() }

func (g *Game) Init() game.State { return New(g.b.rows(), g.b.cols(), g.b.n) }

func (g *Game) ActionCount() int {
	var count int
	for col := 0; col < g.b.cols(); col++ {
		if !g.b.full(col) {
			count++
		}
	}
	return count
}

// Column returns the column that the action drops a piece into.
func (g *Game) Column(a game.Action) int {
	game.CheckAction(g, a)
	k := a.Index()
	for col := 0; col < g.b.cols(); col++ {
		if g.b.full(col) {
			continue
		}
		if k == 0 {
			return col
		}
		k--
	}
	panic("Unreachable")
}

// CellIndex returns the row major index of the cell that the piece of the action lands on.
func (g *Game) CellIndex(a game.Action) int {
	col := g.Column(a)
	return g.b.landing(col)*g.b.cols() + col
}

func (g *Game) Take(a game.Action) game.State {
	col := g.Column(a)
	retVal := g.Clone()
	retVal.b.drop(col, game.Colour(g.nextToMove))
	retVal.nextToMove = g.nextToMove.Opponent()
	retVal.moveCount++
	return retVal
}

// Reward is seen from the player to move: -1 if the game was won, as only the previous move can have won it,
// and DrawReward for a full board. Value turns it around for the player who made the move.
func (g *Game) Reward() (reward float32, terminal bool) {
	ended, winner := g.Ended()
	if !ended {
		return 0, false
	}
	if winner != game.Player(game.None) {
		return -1, true
	}
	return DrawReward, true
}

func (g *Game) Value(taken game.Action, value float32) float32 {
	if value == DrawReward {
		return value
	}
	return -value
}

// AsArray encodes Black as 1 and White as -1.
func (g *Game) AsArray() [][]int32 {
	raw := make([]int32, len(g.b.raw()))
	for i, c := range g.b.raw() {
		switch c {
		case game.Black:
			raw[i] = 1
		case game.White:
			raw[i] = -1
		}
	}
	return game.MakeIterator(raw, g.b.rows(), g.b.cols())
}

func (g *Game) Ended() (bool, game.Player) {
	winner := g.b.checkWin()
	if winner != game.None {
		return true, game.Player(winner)
	}

	// ended due to full board
	for _, c := range g.b.raw() {
		if c == game.None {
			return false, game.Player(game.None)
		}
	}
	return true, game.Player(game.None)
}

func (g *Game) Clone() *Game {
	return &Game{
		b:          g.b.clone(),
		nextToMove: g.nextToMove,
		moveCount:  g.moveCount,
	}
}

func (g *Game) Format(s fmt.State, c rune) { g.b.Format(s, c) }
