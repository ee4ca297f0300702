// Package fact implements a typed fact store with change tracking.
//
// A fact is a named value of exactly one kind: int, string, bool, or
// string-set. The store keeps four independent namespaces, one per kind,
// so the same key can hold an int fact and a string fact at the same time.
// Reads are statically typed per kind - there is no polymorphic accessor
// that could mis-cast a bool as an int.
//
// # Change tracking
//
// Every write reports whether the stored value actually changed. A true
// change records the key in the kind's changed-set; writing a value equal
// to the current one is idempotent and leaves the changed-set alone. The
// changed-set is a set, not a counter: a key that changed five times since
// the last drain appears once.
//
// DrainChanged atomically returns and clears one kind's changed-set. The
// notify package drains all four kinds per tick and republishes each key
// as a notification.
//
// # Absence
//
// Absence is never an error. Reads use comma-ok results, and set-style
// writes compare against the kind's default value (0, "", false) when the
// key has never been written - so a first write of the default is reported
// as unchanged. That masking behavior is preserved deliberately from the
// reference implementation; see Store.SetInt.
package fact
