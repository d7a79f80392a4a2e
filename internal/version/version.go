// Package version records the tool identity stamped into persisted
// snapshots and export headers.
package version

const (
	Name    = "symdex"
	Version = "0.5.0"
)
