// Package store persists analysis progress and logs. Both backends
// implement analysis.ProgressSink, so the runner never knows whether it
// writes to Postgres or to memory.
package store

import (
	"context"
	"errors"

	"github.com/bionetlab/netcontrol/pkg/analysis"
)

// ErrNotFound is returned when an analysis ID is unknown
var ErrNotFound = errors.New("analysis not found")

// Store is the persistence surface for analyses
type Store interface {
	analysis.ProgressSink

	// GetSnapshot returns the latest self-consistent progress snapshot
	GetSnapshot(ctx context.Context, analysisID string) (analysis.Snapshot, error)
	// GetLog returns the ordered append-only log of one analysis
	GetLog(ctx context.Context, analysisID string) ([]analysis.LogEntry, error)
	// ListSnapshots returns the latest snapshot of every known analysis
	ListSnapshots(ctx context.Context) ([]analysis.Snapshot, error)
	// Close releases backend resources
	Close() error
}
