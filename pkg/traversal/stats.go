package traversal

import "fmt"

// Stats are the counters a traversal reports.
type Stats struct {
	// ScannedIndex counts edge documents read from edge indexes and vertex
	// documents fetched from the store. Cache hits are free.
	ScannedIndex int64 `json:"scannedIndex"`
	// ScannedFull counts full collection scans. Traversals never do one.
	ScannedFull int64 `json:"scannedFull"`
	// Filtered counts candidates rejected by pruning or post filters.
	Filtered int64 `json:"filtered"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.ScannedIndex += o.ScannedIndex
	s.ScannedFull += o.ScannedFull
	s.Filtered += o.Filtered
}

func (s Stats) String() string {
	return fmt.Sprintf("scannedIndex=%d scannedFull=%d filtered=%d", s.ScannedIndex, s.ScannedFull, s.Filtered)
}

// WarningCode classifies runtime warnings.
type WarningCode int

const (
	WarnInvalidStart WarningCode = iota + 1
	WarnStartNotFound
	WarnFetchFailed
)

// Warning is a non-fatal problem attached to a query response.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("warning %d: %s", w.Code, w.Message)
}
