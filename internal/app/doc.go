// Package app is the application layer — the only component that wires
// multiple domain components together. It owns the per-asset lanes, the
// window ticker, and the read API served by the HTTP handlers.
package app
