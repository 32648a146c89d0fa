// Package triage runs the front desk of an emergency room: it admits
// patients onto the severity queue, calls the most urgent one for treatment
// and re-grades patients while they wait.
package triage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/triagekit/triage/pkg/logger"
	"github.com/triagekit/triage/pkg/queue"
	"github.com/triagekit/triage/pkg/types"
)

// MaxNameLength is the longest accepted patient name, in runes
const MaxNameLength = 50

// pressureRatio of a bounded queue's capacity triggers a pressure alert
const pressureRatio = 0.9

// Notifier receives desk events worth surfacing outside the log
type Notifier interface {
	NotifyCritical(name string, severity int)
	NotifyEscalated(name string, severity int)
	NotifyQueuePressure(waiting, capacity int)
	NotifyTreated(name string, severity int, waited time.Duration)
}

// Stats summarises desk activity
type Stats struct {
	Waiting  int
	Capacity int
	Admitted int64
	Treated  int64
	Updated  int64
	Rejected int64
}

// Desk validates front desk requests and applies them to the queue
type Desk struct {
	queue    *queue.SyncQueue
	logger   logger.Logger
	notifier Notifier
	now      func() time.Time

	mu     sync.RWMutex
	bounds types.QueueConfig

	admitted atomic.Int64
	treated  atomic.Int64
	updated  atomic.Int64
	rejected atomic.Int64
}

// NewDesk creates a desk over a fresh queue configured by cfg. notifier
// may be nil.
func NewDesk(cfg types.QueueConfig, log logger.Logger, notifier Notifier) (*Desk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid queue config: %w", err)
	}

	opts := []queue.Option{
		queue.WithCapacity(cfg.Capacity),
		queue.WithSeverityRange(cfg.MinSeverity, cfg.MaxSeverity),
	}
	if cfg.FIFOTies {
		opts = append(opts, queue.WithFIFOTies())
	}
	if cfg.UniqueNames {
		opts = append(opts, queue.WithUniqueIDs())
	}
	if cfg.Indexed {
		opts = append(opts, queue.WithIndex())
	}

	return &Desk{
		queue:    queue.NewSyncQueue(opts...),
		logger:   log.WithComponent("desk"),
		notifier: notifier,
		now:      time.Now,
		bounds:   cfg,
	}, nil
}

// Admit validates and queues a patient
func (d *Desk) Admit(ctx context.Context, name string, severity int) (queue.Entry, error) {
	log := logger.WithContext(ctx, d.logger)

	if err := d.validate(name, severity); err != nil {
		d.rejected.Add(1)
		log.Warn("Admission rejected", logger.WithField("name", name), logger.WithError(err))
		return queue.Entry{}, &PatientError{Op: "admit", Name: name, Err: err}
	}

	entry, err := d.queue.Insert(name, severity)
	if err != nil {
		d.rejected.Add(1)
		log.Warn("Admission rejected", logger.WithField("name", name), logger.WithError(err))
		return queue.Entry{}, &PatientError{Op: "admit", Name: name, Err: err}
	}
	d.admitted.Add(1)

	waiting := d.queue.Len()
	log.Info("Patient admitted",
		logger.WithField("name", name),
		logger.WithField("severity", severity),
		logger.WithField("ticket", entry.Ticket),
		logger.WithField("waiting", waiting))

	if d.notifier != nil {
		d.mu.RLock()
		critical := d.bounds.CriticalSeverity
		d.mu.RUnlock()

		if severity >= critical {
			d.notifier.NotifyCritical(name, severity)
		}
		if capacity := d.queue.Cap(); capacity > 0 && float64(waiting) >= pressureRatio*float64(capacity) {
			d.notifier.NotifyQueuePressure(waiting, capacity)
		}
	}

	return entry, nil
}

// TreatNext removes and returns the most urgent patient
func (d *Desk) TreatNext(ctx context.Context) (queue.Entry, error) {
	log := logger.WithContext(ctx, d.logger)

	entry, err := d.queue.ExtractHighest()
	if err != nil {
		log.Debug("Nothing to treat", logger.WithError(err))
		return queue.Entry{}, &PatientError{Op: "treat", Err: err}
	}
	d.treated.Add(1)

	waited := entry.Waiting(d.now())
	log.Success("Patient called for treatment",
		logger.WithField("name", entry.ID),
		logger.WithField("severity", entry.Severity),
		logger.WithField("waited", waited.Round(time.Millisecond)))

	if d.notifier != nil {
		d.notifier.NotifyTreated(entry.ID, entry.Severity, waited)
	}
	return entry, nil
}

// UpdateSeverity re-grades a waiting patient
func (d *Desk) UpdateSeverity(ctx context.Context, name string, severity int) (queue.Entry, error) {
	log := logger.WithContext(ctx, d.logger)

	if err := d.checkSeverity(severity); err != nil {
		d.rejected.Add(1)
		log.Warn("Severity update rejected", logger.WithField("name", name), logger.WithError(err))
		return queue.Entry{}, &PatientError{Op: "update", Name: name, Err: err}
	}

	entry, err := d.queue.Reprioritize(name, severity)
	if err != nil {
		log.Warn("Severity update failed", logger.WithField("name", name), logger.WithError(err))
		return queue.Entry{}, &PatientError{Op: "update", Name: name, Err: err}
	}
	d.updated.Add(1)

	log.Info("Severity updated",
		logger.WithField("name", name),
		logger.WithField("severity", severity))

	if d.notifier != nil {
		d.mu.RLock()
		critical := d.bounds.CriticalSeverity
		d.mu.RUnlock()
		if severity >= critical {
			d.notifier.NotifyEscalated(name, severity)
		}
	}
	return entry, nil
}

// Board returns every waiting patient, most urgent first
func (d *Desk) Board() []queue.Entry {
	return d.queue.PeekRanked()
}

// Next returns the patient who would be treated next
func (d *Desk) Next() (queue.Entry, error) {
	return d.queue.Peek()
}

// Stats returns current counters
func (d *Desk) Stats() Stats {
	return Stats{
		Waiting:  d.queue.Len(),
		Capacity: d.queue.Cap(),
		Admitted: d.admitted.Load(),
		Treated:  d.treated.Load(),
		Updated:  d.updated.Load(),
		Rejected: d.rejected.Load(),
	}
}

// Bounds returns the severity scale currently enforced
func (d *Desk) Bounds() types.QueueConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bounds
}

// ApplyConfig adopts a reloaded configuration. Only the severity scale and
// critical threshold change at runtime; capacity and ordering rules are
// fixed when the queue is built.
func (d *Desk) ApplyConfig(cfg types.QueueConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid queue config: %w", err)
	}

	d.mu.Lock()
	old := d.bounds
	d.bounds.MinSeverity = cfg.MinSeverity
	d.bounds.MaxSeverity = cfg.MaxSeverity
	d.bounds.CriticalSeverity = cfg.CriticalSeverity
	d.mu.Unlock()

	if cfg.Capacity != old.Capacity || cfg.FIFOTies != old.FIFOTies ||
		cfg.UniqueNames != old.UniqueNames || cfg.Indexed != old.Indexed {
		d.logger.Warn("Queue layout changes take effect on the next session",
			logger.WithField("capacity", cfg.Capacity))
	}

	d.logger.Info("Severity scale updated",
		logger.WithField("min", cfg.MinSeverity),
		logger.WithField("max", cfg.MaxSeverity),
		logger.WithField("critical", cfg.CriticalSeverity))
	return nil
}

func (d *Desk) validate(name string, severity int) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return d.checkSeverity(severity)
}

func (d *Desk) checkSeverity(severity int) error {
	d.mu.RLock()
	bounds := d.bounds
	d.mu.RUnlock()

	if !bounds.InRange(severity) {
		return fmt.Errorf("%w: %d not in [%d, %d]",
			ErrSeverityOutOfRange, severity, bounds.MinSeverity, bounds.MaxSeverity)
	}
	return nil
}

// ValidateName checks that name is a single non-empty word of at most
// MaxNameLength runes.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidName, MaxNameLength)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: contains whitespace", ErrInvalidName)
	}
	return nil
}
