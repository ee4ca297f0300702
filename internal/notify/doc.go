// Package notify republishes fact-store changes as discrete notifications.
//
// Once per tick the Bus drains the store's four changed-key sets and emits
// one (key, current value) notification per drained key to every registered
// listener. This is the seam where the core hands control to presentation
// or host code: listeners are invoked synchronously and are expected to be
// non-blocking.
//
// Delivery order is deterministic: kinds in the fixed order int, string,
// bool, set; keys sorted lexicographically within a kind; listeners in
// registration order.
package notify
