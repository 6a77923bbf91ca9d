package game

import (
	"fmt"
	"iter"
)

type Colour int32

const (
	None Colour = iota
	Black
	White
)

func (cl Colour) Format(s fmt.State, c rune) {
	switch c {
	case 'v': // used in debug
		switch cl {
		case None:
			fmt.Fprint(s, "None")
		case Black:
			fmt.Fprint(s, "Black")
		case White:
			fmt.Fprint(s, "White")
		}
	case 's': // used in board games
		switch cl {
		case None:
			fmt.Fprint(s, "·")
		case Black:
			fmt.Fprint(s, "X")
		case White:
			fmt.Fprint(s, "O")
		}
	}
}

// Player represents a player. It's also a colour.
type Player Colour

func (p Player) Format(s fmt.State, c rune) { Colour(p).Format(s, c) }

// Opponent returns the other player of a two player game.
func (p Player) Opponent() Player {
	switch Colour(p) {
	case Black:
		return Player(White)
	case White:
		return Player(Black)
	}
	panic("Unreachable")
}

// Action is an index into the action space of the state that produced it.
// An Action is meaningless outside of that state.
type Action int

// Index returns the position of the action in its state's action enumeration.
func (a Action) Index() int { return int(a) }

// State is any decision domain that the search can run on.
//
// A State is an immutable value: Take returns a new State and never mutates the receiver.
type State interface {
	// Init returns the canonical start state of the same configuration (i.e. same board size).
	Init() State

	// ActionCount returns the number of actions available from this state.
	// It must be at least 1 for any non-terminal state.
	ActionCount() int

	// Take returns the state resulting from taking the given action.
	// Actions outside of [0, ActionCount) panic with IndexOutOfRange.
	Take(a Action) State

	// Reward returns the reward of a terminal state. terminal is false for non-terminal states.
	Reward() (reward float32, terminal bool)

	// Value reinterprets the value of the state reached by taking `taken` from the perspective of this state.
	Value(taken Action, value float32) float32

	// AsArray returns a fixed shape snapshot of the state, for use by an estimator.
	AsArray() [][]int32
}

// Actions iterates over the actions of a state, in order. The sequence is restartable.
func Actions(s State) iter.Seq[Action] {
	return func(yield func(Action) bool) {
		n := s.ActionCount()
		for i := 0; i < n; i++ {
			if !yield(Action(i)) {
				return
			}
		}
	}
}

// CheckAction panics with IndexOutOfRange if the action was not produced by the state's own enumeration.
func CheckAction(s State, a Action) {
	if n := s.ActionCount(); int(a) < 0 || int(a) >= n {
		panic(IndexOutOfRange{Index: int(a), Len: n})
	}
}

// CellIndexer is a State whose actions place something on a board cell.
// CellIndex returns the row major index of the cell that the action refers to.
type CellIndexer interface {
	CellIndex(a Action) int
}

// MetaState is the state of a self-play run, as seen by an output encoder.
type MetaState interface {
	Name() string    // name of the game
	Episode() int    // which episode is being played
	MoveNumber() int // how many moves have been committed in the episode
	State() State    // the current state
	Result() string  // human readable result. Empty if the episode is still running
}
