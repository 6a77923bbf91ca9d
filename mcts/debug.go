//go:build debug
// +build debug

package mcts

import (
	"bytes"
	"fmt"
)

// lumberjack buffers the search log. Only debug builds log anything.
type lumberjack struct {
	*bytes.Buffer
}

func makeLumberJack() lumberjack {
	return lumberjack{
		Buffer: new(bytes.Buffer),
	}
}

func (l *lumberjack) log(msg string, args ...interface{}) {
	fmt.Fprintf(l.Buffer, msg, args...)
	l.WriteByte('\n')
}

func (l *lumberjack) Reset() { l.Buffer.Reset() }

// Log returns everything logged so far.
func (l lumberjack) Log() string { return l.String() }
