package logging

import (
	"fmt"
	"runtime/debug"
)

// Recover logs a panic with its stack instead of letting it take the daemon
// down. Use as `defer logging.Recover(log, "where")`.
func Recover(l *Logger, where string) {
	r := recover()
	if r == nil {
		return
	}
	if l == nil {
		l = Default()
	}
	l.Error("recovered panic",
		"where", where,
		"panic", fmt.Sprint(r),
		"stack", string(debug.Stack()),
	)
}
