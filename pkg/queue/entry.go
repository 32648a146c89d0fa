package queue

import "time"

// Entry is a single queued record.
type Entry struct {
	// ID is the caller-supplied identifier used for lookups.
	ID string `json:"id"`
	// Severity orders the heap; higher is served first.
	Severity int `json:"severity"`
	// Ticket is unique per insert, even when IDs repeat.
	Ticket string `json:"ticket"`
	// Seq is the insertion sequence number. Only consulted for FIFO ties.
	Seq uint64 `json:"seq"`
	// AdmittedAt is when the entry was inserted.
	AdmittedAt time.Time `json:"admittedAt"`
}

// Waiting returns how long the entry has been queued as of now.
func (e Entry) Waiting(now time.Time) time.Duration {
	if e.AdmittedAt.IsZero() {
		return 0
	}
	return now.Sub(e.AdmittedAt)
}
