// Package queue provides the severity-ordered max-heap used to decide who
// is served next.
//
// Entries live in a slice laid out as a binary heap: the parent of position
// i is (i-1)/2 and its children are 2i+1 and 2i+2. Every operation either
// commits all of its swaps or fails before making any.
package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Default severity range, matching the triage scale.
const (
	DefaultMinSeverity = 0
	DefaultMaxSeverity = 10
)

// MaxHeap is an array-backed max-heap of entries keyed by severity.
// It is not safe for concurrent use; see SyncQueue.
type MaxHeap struct {
	entries []Entry

	capacity    int
	minSeverity int
	maxSeverity int
	rangeCheck  bool
	fifoTies    bool
	uniqueIDs   bool

	index map[string]int
	seq   uint64
	now   func() time.Time
}

// NewMaxHeap creates an empty heap
func NewMaxHeap(opts ...Option) *MaxHeap {
	h := &MaxHeap{
		minSeverity: DefaultMinSeverity,
		maxSeverity: DefaultMaxSeverity,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.capacity > 0 {
		h.entries = make([]Entry, 0, h.capacity)
	}
	return h
}

// Len returns the number of queued entries
func (h *MaxHeap) Len() int {
	return len(h.entries)
}

// Cap returns the fixed bound, or 0 when the heap grows dynamically
func (h *MaxHeap) Cap() int {
	return h.capacity
}

// Insert adds an entry and restores the heap by walking it up from the
// first free slot.
func (h *MaxHeap) Insert(id string, severity int) (Entry, error) {
	if err := h.checkSeverity(severity); err != nil {
		return Entry{}, err
	}
	if h.capacity > 0 && len(h.entries) >= h.capacity {
		return Entry{}, fmt.Errorf("insert %q: %w (%d)", id, ErrCapacityExceeded, h.capacity)
	}
	if h.uniqueIDs && h.find(id) >= 0 {
		return Entry{}, fmt.Errorf("insert %q: %w", id, ErrDuplicateID)
	}

	h.seq++
	e := Entry{
		ID:         id,
		Severity:   severity,
		Ticket:     uuid.NewString(),
		Seq:        h.seq,
		AdmittedAt: h.now(),
	}
	h.entries = append(h.entries, e)
	last := len(h.entries) - 1
	if h.index != nil {
		h.index[id] = last
	}
	h.up(last)

	return e, nil
}

// ExtractHighest removes and returns the root entry.
func (h *MaxHeap) ExtractHighest() (Entry, error) {
	n := len(h.entries)
	if n == 0 {
		return Entry{}, ErrEmpty
	}

	top := h.entries[0]
	h.swap(0, n-1)
	h.entries[n-1] = Entry{}
	h.entries = h.entries[:n-1]
	if h.index != nil {
		delete(h.index, top.ID)
	}
	h.down(0)

	return top, nil
}

// Peek returns the root entry without removing it
func (h *MaxHeap) Peek() (Entry, error) {
	if len(h.entries) == 0 {
		return Entry{}, ErrEmpty
	}
	return h.entries[0], nil
}

// Reprioritize changes the severity of the first entry matching id and
// restores the heap from that position. Only one direction is walked: up
// when the new severity outranks the parent, down otherwise. A change at a
// single slot can only break the invariant on one side of it.
func (h *MaxHeap) Reprioritize(id string, severity int) (Entry, error) {
	if err := h.checkSeverity(severity); err != nil {
		return Entry{}, err
	}
	i := h.find(id)
	if i < 0 {
		return Entry{}, fmt.Errorf("reprioritize %q: %w", id, ErrNotFound)
	}

	h.entries[i].Severity = severity
	updated := h.entries[i]

	if i > 0 && h.outranks(i, parent(i)) {
		h.up(i)
	} else {
		h.down(i)
	}

	return updated, nil
}

// PeekRanked returns every entry, highest first, without touching the
// heap. It drains a clone of the storage.
func (h *MaxHeap) PeekRanked() []Entry {
	scratch := h.clone()
	ranked := make([]Entry, 0, len(scratch.entries))
	for len(scratch.entries) > 0 {
		e, _ := scratch.ExtractHighest()
		ranked = append(ranked, e)
	}
	return ranked
}

// Contains reports whether an entry with id is queued
func (h *MaxHeap) Contains(id string) bool {
	return h.find(id) >= 0
}

// Reset drops every entry. The insertion sequence keeps counting.
func (h *MaxHeap) Reset() {
	for i := range h.entries {
		h.entries[i] = Entry{}
	}
	h.entries = h.entries[:0]
	if h.index != nil {
		h.index = make(map[string]int)
	}
}

// Valid reports whether the max-heap invariant holds at every non-root
// position.
func (h *MaxHeap) Valid() bool {
	for i := 1; i < len(h.entries); i++ {
		if h.entries[parent(i)].Severity < h.entries[i].Severity {
			return false
		}
	}
	return true
}

func parent(i int) int { return (i - 1) / 2 }

// outranks reports whether the entry at i must sit above the entry at j.
func (h *MaxHeap) outranks(i, j int) bool {
	a, b := h.entries[i], h.entries[j]
	if a.Severity != b.Severity {
		return a.Severity > b.Severity
	}
	return h.fifoTies && a.Seq < b.Seq
}

func (h *MaxHeap) up(i int) {
	for i > 0 {
		p := parent(i)
		if !h.outranks(i, p) {
			return
		}
		h.swap(i, p)
		i = p
	}
}

func (h *MaxHeap) down(i int) {
	n := len(h.entries)
	for {
		largest := i
		left, right := 2*i+1, 2*i+2
		if left < n && h.outranks(left, largest) {
			largest = left
		}
		if right < n && h.outranks(right, largest) {
			largest = right
		}
		if largest == i {
			return
		}
		h.swap(i, largest)
		i = largest
	}
}

func (h *MaxHeap) swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	if h.index != nil {
		h.index[h.entries[i].ID] = i
		h.index[h.entries[j].ID] = j
	}
}

// find returns the position of the first entry matching id in slice order,
// or -1.
func (h *MaxHeap) find(id string) int {
	if h.index != nil {
		if i, ok := h.index[id]; ok {
			return i
		}
		return -1
	}
	for i := range h.entries {
		if h.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (h *MaxHeap) checkSeverity(severity int) error {
	if !h.rangeCheck {
		return nil
	}
	if severity < h.minSeverity || severity > h.maxSeverity {
		return fmt.Errorf("severity %d not in [%d, %d]: %w",
			severity, h.minSeverity, h.maxSeverity, ErrInvalidPriority)
	}
	return nil
}

// clone copies the storage and ordering rules. The copy has no bound and
// no index since it is only ever drained.
func (h *MaxHeap) clone() *MaxHeap {
	entries := make([]Entry, len(h.entries))
	copy(entries, h.entries)
	return &MaxHeap{
		entries:     entries,
		minSeverity: h.minSeverity,
		maxSeverity: h.maxSeverity,
		fifoTies:    h.fifoTies,
		seq:         h.seq,
		now:         h.now,
	}
}
