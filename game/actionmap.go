package game

import "iter"

// ActionMap is a dense mapping of Action to T. Its length is fixed at construction
// to the action count of the state that it was built for.
type ActionMap[T any] struct {
	items []T
}

// NewActionMap builds an ActionMap by calling fn on every action of s, in action order.
func NewActionMap[T any](s State, fn func(Action) T) ActionMap[T] {
	items := make([]T, 0, s.ActionCount())
	for a := range Actions(s) {
		items = append(items, fn(a))
	}
	return ActionMap[T]{items: items}
}

// MakeActionMap makes an ActionMap out of items, where items[i] is the value for Action(i).
// The ActionMap takes ownership of the slice.
func MakeActionMap[T any](items []T) ActionMap[T] { return ActionMap[T]{items: items} }

func (m ActionMap[T]) Len() int { return len(m.items) }

// At returns the value for a.
func (m ActionMap[T]) At(a Action) T { return m.items[m.check(a)] }

// Ptr returns a pointer to the value for a, for in-place updates.
func (m ActionMap[T]) Ptr(a Action) *T { return &m.items[m.check(a)] }

func (m ActionMap[T]) Set(a Action, v T) { m.items[m.check(a)] = v }

// All iterates over the action-value pairs in action order.
func (m ActionMap[T]) All() iter.Seq2[Action, T] {
	return func(yield func(Action, T) bool) {
		for i, v := range m.items {
			if !yield(Action(i), v) {
				return
			}
		}
	}
}

// Values returns a copy of the values in action order.
func (m ActionMap[T]) Values() []T {
	retVal := make([]T, len(m.items))
	copy(retVal, m.items)
	return retVal
}

// Last returns the value of the last action.
func (m ActionMap[T]) Last() (retVal T, ok bool) {
	if len(m.items) == 0 {
		return retVal, false
	}
	return m.items[len(m.items)-1], true
}

func (m ActionMap[T]) check(a Action) int {
	if int(a) < 0 || int(a) >= len(m.items) {
		panic(IndexOutOfRange{Index: int(a), Len: len(m.items)})
	}
	return int(a)
}
