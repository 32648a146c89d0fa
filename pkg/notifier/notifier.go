// Package notifier raises desktop alerts for triage events
package notifier

import (
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/triagekit/triage/pkg/logger"
)

// SendFunc delivers a single desktop notification
type SendFunc func(title, message string) error

// BeepFunc plays the alert sound
type BeepFunc func() error

// AlertNotifier sends desktop notifications through beeep
type AlertNotifier struct {
	mu      sync.RWMutex
	enabled bool
	sound   bool

	send   SendFunc
	beep   BeepFunc
	logger logger.Logger
}

// Config represents notification configuration
type Config struct {
	Enabled bool
	Sound   bool
}

// New creates a notifier backed by the desktop notification service
func New(config Config, log logger.Logger) *AlertNotifier {
	return NewWithSender(config, log,
		func(title, message string) error { return beeep.Notify(title, message, "") },
		func() error { return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration) },
	)
}

// NewWithSender creates a notifier with custom delivery functions
func NewWithSender(config Config, log logger.Logger, send SendFunc, beep BeepFunc) *AlertNotifier {
	return &AlertNotifier{
		enabled: config.Enabled,
		sound:   config.Sound,
		send:    send,
		beep:    beep,
		logger:  log,
	}
}

// Configure toggles delivery at runtime
func (n *AlertNotifier) Configure(config Config) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = config.Enabled
	n.sound = config.Sound
}

// Config returns the delivery settings currently in effect
func (n *AlertNotifier) Config() Config {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return Config{Enabled: n.enabled, Sound: n.sound}
}

// NotifyCritical announces a patient admitted at or above the critical threshold
func (n *AlertNotifier) NotifyCritical(name string, severity int) {
	n.notify("🚨 Critical admission", fmt.Sprintf("%s admitted with severity %d", name, severity), true)
}

// NotifyEscalated announces a waiting patient re-graded to a critical severity
func (n *AlertNotifier) NotifyEscalated(name string, severity int) {
	n.notify("🚨 Patient escalated", fmt.Sprintf("%s re-graded to severity %d", name, severity), true)
}

// NotifyQueuePressure warns when the queue is close to its bound
func (n *AlertNotifier) NotifyQueuePressure(waiting, capacity int) {
	n.notify("⏳ Queue nearly full", fmt.Sprintf("%d of %d places taken", waiting, capacity), false)
}

// NotifyTreated announces the patient called for treatment
func (n *AlertNotifier) NotifyTreated(name string, severity int, waited time.Duration) {
	n.notify("✅ Now treating", fmt.Sprintf("%s (severity %d) after %s", name, severity, formatDuration(waited)), false)
}

func (n *AlertNotifier) notify(title, message string, urgent bool) {
	n.mu.RLock()
	enabled, sound := n.enabled, n.sound
	n.mu.RUnlock()

	if !enabled {
		return
	}

	if err := n.send(title, message); err != nil {
		n.logger.Debug("Failed to send notification", logger.WithError(err))
	}
	if urgent && sound && n.beep != nil {
		if err := n.beep(); err != nil {
			n.logger.Debug("Failed to play sound", logger.WithError(err))
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
