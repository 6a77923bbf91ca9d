package game

import "fmt"

// IndexOutOfRange is the panic value raised when an Action is used outside the state (or ActionMap) that produced it.
// It is a programmer error, not a recoverable condition.
type IndexOutOfRange struct {
	Index, Len int
}

func (err IndexOutOfRange) Error() string {
	return fmt.Sprintf("action index %d out of range [0, %d)", err.Index, err.Len)
}
