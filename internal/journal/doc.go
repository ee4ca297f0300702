// Package journal records delivered notifications to SQLite for offline
// trace inspection.
//
// The journal is a diagnostic artifact, not a persistence layer: the fact
// store never reads state back from it, and losing the journal loses
// nothing but the trace. It implements engine.Sink so the engine can
// record each flushed batch under its logical tick.
package journal
