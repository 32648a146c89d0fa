package queue

import "sync"

// SyncQueue guards a MaxHeap for use from several goroutines. Mutations
// hold the write lock for their whole heapify walk; readers take the read
// lock and receive copies.
type SyncQueue struct {
	heap *MaxHeap
	mu   sync.RWMutex
}

// NewSyncQueue creates a guarded heap
func NewSyncQueue(opts ...Option) *SyncQueue {
	return &SyncQueue{heap: NewMaxHeap(opts...)}
}

// Insert adds an entry
func (q *SyncQueue) Insert(id string, severity int) (Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Insert(id, severity)
}

// ExtractHighest removes and returns the highest severity entry
func (q *SyncQueue) ExtractHighest() (Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.ExtractHighest()
}

// Reprioritize changes an entry's severity in place
func (q *SyncQueue) Reprioritize(id string, severity int) (Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Reprioritize(id, severity)
}

// Reset drops every entry
func (q *SyncQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.heap.Reset()
}

// PeekRanked returns a ranked snapshot
func (q *SyncQueue) PeekRanked() []Entry {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.heap.PeekRanked()
}

// Peek returns the highest severity entry without removing it
func (q *SyncQueue) Peek() (Entry, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.heap.Peek()
}

// Len returns the number of queued entries
func (q *SyncQueue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.heap.Len()
}

// Cap returns the fixed bound, or 0 when unbounded
func (q *SyncQueue) Cap() int {
	return q.heap.Cap()
}

// Contains reports whether id is queued
func (q *SyncQueue) Contains(id string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.heap.Contains(id)
}
