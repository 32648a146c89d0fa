package queue

import "time"

// Option configures a MaxHeap at construction.
type Option func(*MaxHeap)

// WithCapacity bounds the heap. Zero means the heap grows as needed.
func WithCapacity(n int) Option {
	return func(h *MaxHeap) {
		if n < 0 {
			n = 0
		}
		h.capacity = n
	}
}

// WithSeverityRange sets the closed range used by WithRangeCheck.
func WithSeverityRange(min, max int) Option {
	return func(h *MaxHeap) {
		h.minSeverity = min
		h.maxSeverity = max
	}
}

// WithRangeCheck makes Insert and Reprioritize reject severities outside
// the configured range with ErrInvalidPriority.
func WithRangeCheck() Option {
	return func(h *MaxHeap) {
		h.rangeCheck = true
	}
}

// WithFIFOTies serves equal severities in insertion order.
func WithFIFOTies() Option {
	return func(h *MaxHeap) {
		h.fifoTies = true
	}
}

// WithUniqueIDs rejects an insert whose identifier is already queued.
func WithUniqueIDs() Option {
	return func(h *MaxHeap) {
		h.uniqueIDs = true
	}
}

// WithIndex keeps an identifier to position map in step with every swap,
// making Reprioritize and Contains O(1) lookups. It implies WithUniqueIDs
// since a map cannot express "first match by scan order".
func WithIndex() Option {
	return func(h *MaxHeap) {
		h.index = make(map[string]int)
		h.uniqueIDs = true
	}
}

// WithClock overrides the time source used for AdmittedAt.
func WithClock(now func() time.Time) Option {
	return func(h *MaxHeap) {
		if now != nil {
			h.now = now
		}
	}
}
