package domain

import "time"

// Snapshot is the immutable product of one successful load cycle: every
// function view derived from a single read of the source. A reload builds a
// new Snapshot and swaps it in whole; nothing mutates an existing one.
type Snapshot struct {
	ID          string         `json:"id"`
	Source      string         `json:"source"`
	LoadedAt    time.Time      `json:"loaded_at"`
	RecordCount int            `json:"record_count"`
	Functions   []FunctionView `json:"functions"`
}

// FunctionView returns the view for the given function, if the snapshot
// contains it.
func (s *Snapshot) FunctionView(f Function) (FunctionView, bool) {
	for _, v := range s.Functions {
		if v.Function == f {
			return v, true
		}
	}
	return FunctionView{}, false
}

// Entry returns the view entry for (function, KPI), if present.
func (s *Snapshot) Entry(f Function, kpi string) (ViewEntry, bool) {
	view, ok := s.FunctionView(f)
	if !ok {
		return ViewEntry{}, false
	}
	return view.Entry(kpi)
}

// EntryCount returns the number of view entries across all functions.
func (s *Snapshot) EntryCount() int {
	n := 0
	for _, v := range s.Functions {
		n += len(v.Entries)
	}
	return n
}
