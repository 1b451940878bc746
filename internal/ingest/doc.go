// Package ingest pulls raw signals from collectors, drops spam, and fans
// classification across a worker pool before routing scored signals to
// per-asset lanes.
package ingest
