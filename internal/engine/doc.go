// Package engine hosts the fact store behind a single-writer op loop.
//
// The store itself is safe for concurrent use, but the intended discipline
// is one logical owner per tick. The engine makes that discipline concrete:
// host event handlers enqueue write ops from any goroutine, and a single
// Run goroutine applies them in FIFO order. A flush op marks a tick
// boundary, draining the changed-sets and delivering notifications through
// the bus before the next op runs.
//
// Every flush is stamped with a monotonic logical tick from Clock, never a
// wall-clock timestamp, so identical op sequences produce identical traces.
package engine
