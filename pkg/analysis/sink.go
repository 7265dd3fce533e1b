package analysis

import "context"

// ProgressSink receives progress updates from the runner.
//
// SaveProgress must apply each snapshot atomically with respect to
// concurrent readers: a poller may observe a slightly stale snapshot, but
// never a half-updated one.
type ProgressSink interface {
	SaveProgress(ctx context.Context, snap Snapshot) error
	AppendLog(ctx context.Context, analysisID string, entry LogEntry) error
}

// NopSink discards all progress updates
type NopSink struct{}

func (NopSink) SaveProgress(ctx context.Context, snap Snapshot) error { return nil }
func (NopSink) AppendLog(ctx context.Context, analysisID string, entry LogEntry) error {
	return nil
}

// MultiSink forwards every update to all wrapped sinks, returning the
// first error encountered.
func MultiSink(sinks ...ProgressSink) ProgressSink {
	return multiSink(sinks)
}

type multiSink []ProgressSink

func (m multiSink) SaveProgress(ctx context.Context, snap Snapshot) error {
	var first error
	for _, s := range m {
		if err := s.SaveProgress(ctx, snap); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m multiSink) AppendLog(ctx context.Context, analysisID string, entry LogEntry) error {
	var first error
	for _, s := range m {
		if err := s.AppendLog(ctx, analysisID, entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}
