// Package domain holds the core model types, sentinel errors and interfaces
// shared across the oracle. It has no dependencies on adapters or transport.
package domain
