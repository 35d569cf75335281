// Package transform is the key event transformation engine.
//
// Each input event passes through a fixed pipeline:
//
//	modmap -> multipurpose -> simultaneous chords -> keymap dispatch -> Output
//
// Any stage may fully handle an event and stop the pipeline. The engine is
// strictly single-threaded: exactly one goroutine may call Engine.Process, and
// every event runs to completion (including all output it produces) before
// the next one is accepted. All mutable state lives in State; the Tables the
// engine reads are immutable once the engine is built.
//
// Timeouts are evaluated lazily. A multipurpose tap or a pending chord that
// expires with no further input is only resolved when the next relevant event
// arrives; there are no timers.
package transform
