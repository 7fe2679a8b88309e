package domain

import "time"

// BatchState is the state of a batch generation run.
type BatchState string

// Batch generation states. Idle -> Running -> {Complete, Failed}.
const (
	BatchStateIdle     BatchState = "idle"
	BatchStateRunning  BatchState = "running"
	BatchStateComplete BatchState = "complete"
	BatchStateFailed   BatchState = "failed"
)

// IsTerminal reports whether no further transitions are possible.
func (s BatchState) IsTerminal() bool {
	return s == BatchStateComplete || s == BatchStateFailed
}

// String returns the string representation.
func (s BatchState) String() string {
	return string(s)
}

// ProgressEvent is emitted after each batch and on termination.
type ProgressEvent struct {
	State BatchState `json:"state"`

	// Batch is the number of generate calls made so far.
	Batch int `json:"batch"`

	// Processed is the running total since the run started.
	Processed int `json:"processed"`

	// Failed is the running total of per-item failures.
	Failed int `json:"failed"`

	// Pending is the latest pending count for the run's scope.
	Pending int `json:"pending"`

	// Rate is items per second computed from the running total.
	Rate float64 `json:"rate"`

	Elapsed time.Duration `json:"elapsed"`

	// Message carries the failure reason verbatim when State is failed.
	Message string `json:"message,omitempty"`
}

// ProgressReport is the final outcome of a run.
type ProgressReport struct {
	State            BatchState    `json:"state"`
	Batches          int           `json:"batches"`
	Processed        int           `json:"processed"`
	Failed           int           `json:"failed"`
	RemainingPending int           `json:"remainingPending"`
	Rate             float64       `json:"rate"`
	Elapsed          time.Duration `json:"elapsed"`
	Message          string        `json:"message,omitempty"`
}
