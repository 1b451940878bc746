// Package aggregate combines many per-signal scores into per-window
// snapshots and derives momentum trends across snapshot sequences.
package aggregate
