package cohort

import (
	"context"
	"sync"
)

// SinkMock keeps every table it is given. When FailOn is n > 0, the n-th write returns Err.
type SinkMock struct {
	mu     sync.Mutex
	Tables []Table
	Runs   []Run
	FailOn int
	Err    error
	writes int
}

var (
	_ TableSink   = (*SinkMock)(nil)
	_ RunRecorder = (*SinkMock)(nil)
)

func (sink *SinkMock) BeginRun(_ context.Context, run Run) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.Runs = append(sink.Runs, run)
	return nil
}

func (sink *SinkMock) WriteTable(_ context.Context, tbl Table) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.writes++
	if sink.FailOn > 0 && sink.writes == sink.FailOn {
		return sink.Err
	}
	sink.Tables = append(sink.Tables, tbl)
	return nil
}
