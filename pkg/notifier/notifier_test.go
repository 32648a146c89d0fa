package notifier_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/triagekit/triage/pkg/logger"
	"github.com/triagekit/triage/pkg/notifier"
)

type recorder struct {
	titles   []string
	messages []string
	beeps    int
	sendErr  error
}

func (r *recorder) send(title, message string) error {
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return r.sendErr
}

func (r *recorder) beep() error {
	r.beeps++
	return nil
}

func newRecorded(cfg notifier.Config) (*notifier.AlertNotifier, *recorder) {
	r := &recorder{}
	return notifier.NewWithSender(cfg, logger.NewNopLogger(), r.send, r.beep), r
}

func TestNotifier_Critical(t *testing.T) {
	n, r := newRecorded(notifier.Config{Enabled: true, Sound: true})

	n.NotifyCritical("alex", 10)

	if len(r.messages) != 1 || !strings.Contains(r.messages[0], "alex admitted with severity 10") {
		t.Fatalf("unexpected messages: %v", r.messages)
	}
	if r.beeps != 1 {
		t.Errorf("expected one beep for a critical admission, got %d", r.beeps)
	}
}

func TestNotifier_NonUrgentDoesNotBeep(t *testing.T) {
	n, r := newRecorded(notifier.Config{Enabled: true, Sound: true})

	n.NotifyQueuePressure(9, 10)
	n.NotifyTreated("sam", 4, 90*time.Second)

	if len(r.messages) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(r.messages))
	}
	if !strings.Contains(r.messages[1], "1m30s") {
		t.Errorf("expected formatted wait, got %q", r.messages[1])
	}
	if r.beeps != 0 {
		t.Errorf("expected no beeps, got %d", r.beeps)
	}
}

func TestNotifier_Disabled(t *testing.T) {
	n, r := newRecorded(notifier.Config{Enabled: false, Sound: true})

	n.NotifyCritical("alex", 10)
	n.NotifyQueuePressure(9, 10)

	if len(r.messages) != 0 || r.beeps != 0 {
		t.Errorf("expected nothing delivered while disabled, got %v", r.messages)
	}

	n.Configure(notifier.Config{Enabled: true})
	if got := n.Config(); !got.Enabled || got.Sound {
		t.Errorf("unexpected config after Configure: %+v", got)
	}
	n.NotifyCritical("alex", 10)
	if len(r.messages) != 1 {
		t.Errorf("expected delivery after enabling, got %d", len(r.messages))
	}
	if r.beeps != 0 {
		t.Errorf("expected no beep with sound off, got %d", r.beeps)
	}
}

func TestNotifier_SendErrorIsSwallowed(t *testing.T) {
	n, r := newRecorded(notifier.Config{Enabled: true})
	r.sendErr = errors.New("no notification daemon")

	n.NotifyTreated("sam", 3, 500*time.Millisecond)

	if len(r.messages) != 1 || !strings.Contains(r.messages[0], "500ms") {
		t.Errorf("unexpected messages: %v", r.messages)
	}
}

func TestNotifier_Escalated(t *testing.T) {
	n, r := newRecorded(notifier.Config{Enabled: true, Sound: true})

	n.NotifyEscalated("sam", 9)

	if len(r.messages) != 1 || !strings.Contains(r.messages[0], "sam re-graded to severity 9") {
		t.Fatalf("unexpected messages: %v", r.messages)
	}
	if strings.Contains(r.messages[0], "admitted") {
		t.Errorf("a re-grade must not read as an admission: %q", r.messages[0])
	}
	if r.beeps != 1 {
		t.Errorf("expected one beep for an escalation, got %d", r.beeps)
	}
}
