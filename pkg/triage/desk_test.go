package triage_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	tcontext "github.com/triagekit/triage/pkg/context"
	"github.com/triagekit/triage/pkg/logger"
	"github.com/triagekit/triage/pkg/mocks"
	"github.com/triagekit/triage/pkg/queue"
	"github.com/triagekit/triage/pkg/triage"
	"github.com/triagekit/triage/pkg/types"
)

func defaultQueueConfig() types.QueueConfig {
	return types.QueueConfig{
		Capacity:         100,
		MinSeverity:      0,
		MaxSeverity:      10,
		CriticalSeverity: 9,
		FIFOTies:         true,
	}
}

func newDesk(t *testing.T, cfg types.QueueConfig) (*triage.Desk, *mocks.MockNotifier) {
	t.Helper()
	n := mocks.NewMockNotifier()
	d, err := triage.NewDesk(cfg, logger.NewNopLogger(), n)
	if err != nil {
		t.Fatalf("NewDesk failed: %v", err)
	}
	return d, n
}

func TestDesk_AdmitAndTreatInSeverityOrder(t *testing.T) {
	d, n := newDesk(t, defaultQueueConfig())
	ctx := context.Background()

	for _, p := range []struct {
		name string
		sev  int
	}{{"ana", 3}, {"ben", 9}, {"cai", 5}, {"dee", 5}} {
		if _, err := d.Admit(ctx, p.name, p.sev); err != nil {
			t.Fatalf("Admit(%s) failed: %v", p.name, err)
		}
	}

	var order []string
	for {
		e, err := d.TreatNext(ctx)
		if errors.Is(err, queue.ErrEmpty) {
			break
		}
		if err != nil {
			t.Fatalf("TreatNext failed: %v", err)
		}
		order = append(order, e.ID)
	}

	want := []string{"ben", "cai", "dee", "ana"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, order)
	}
	if critical := n.Names(mocks.AlertCritical); len(critical) != 1 || critical[0] != "ben" {
		t.Errorf("expected a critical alert for ben, got %v", critical)
	}
	if got := n.Count(mocks.AlertTreated); got != 4 {
		t.Errorf("expected 4 treated notifications, got %d", got)
	}

	stats := d.Stats()
	if stats.Admitted != 4 || stats.Treated != 4 || stats.Waiting != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestDesk_RejectsInvalidInput(t *testing.T) {
	d, _ := newDesk(t, defaultQueueConfig())
	ctx := context.Background()

	tests := []struct {
		name    string
		patient string
		sev     int
		target  error
	}{
		{"severity too high", "ana", 11, triage.ErrSeverityOutOfRange},
		{"severity negative", "ana", -1, queue.ErrInvalidPriority},
		{"empty name", "", 4, triage.ErrInvalidName},
		{"name with space", "ana maria", 4, triage.ErrInvalidName},
		{"name too long", strings.Repeat("x", triage.MaxNameLength+1), 4, triage.ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Admit(ctx, tt.patient, tt.sev)
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}

	if d.Stats().Waiting != 0 {
		t.Errorf("rejected admissions must not reach the queue")
	}
	if d.Stats().Rejected != int64(len(tests)) {
		t.Errorf("expected %d rejections, got %d", len(tests), d.Stats().Rejected)
	}
}

func TestDesk_UpdateSeverity(t *testing.T) {
	d, n := newDesk(t, defaultQueueConfig())
	ctx := context.Background()

	for _, name := range []string{"ana", "ben", "cai"} {
		if _, err := d.Admit(ctx, name, 2); err != nil {
			t.Fatalf("Admit failed: %v", err)
		}
	}

	e, err := d.UpdateSeverity(ctx, "cai", 10)
	if err != nil {
		t.Fatalf("UpdateSeverity failed: %v", err)
	}
	if e.Severity != 10 {
		t.Errorf("expected severity 10, got %d", e.Severity)
	}
	if next, _ := d.Next(); next.ID != "cai" {
		t.Errorf("expected cai next, got %s", next.ID)
	}
	if got := n.Names(mocks.AlertEscalated); len(got) != 1 || got[0] != "cai" {
		t.Errorf("expected an escalation alert for the upgrade, got %v", got)
	}
	if got := n.Count(mocks.AlertCritical); got != 0 {
		t.Errorf("a re-grade is not an admission, got %d critical alerts", got)
	}

	if _, err := d.UpdateSeverity(ctx, "zed", 5); !errors.Is(err, queue.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := d.UpdateSeverity(ctx, "ana", 42); !errors.Is(err, triage.ErrSeverityOutOfRange) {
		t.Errorf("expected ErrSeverityOutOfRange, got %v", err)
	}

	board := d.Board()
	if len(board) != 3 || board[0].ID != "cai" || board[1].ID != "ana" || board[2].ID != "ben" {
		t.Errorf("unexpected board: %+v", board)
	}
}

func TestDesk_CapacityAndPressure(t *testing.T) {
	cfg := defaultQueueConfig()
	cfg.Capacity = 10
	d, n := newDesk(t, cfg)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := d.Admit(ctx, string(rune('a'+i)), 1); err != nil {
			t.Fatalf("Admit %d failed: %v", i, err)
		}
	}
	_, err := d.Admit(ctx, "late", 1)
	if !errors.Is(err, queue.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	var pressure []int
	for _, a := range n.Alerts() {
		if a.Kind == mocks.AlertPressure {
			pressure = append(pressure, a.Waiting)
		}
	}
	if len(pressure) != 2 || pressure[0] != 9 || pressure[1] != 10 {
		t.Errorf("expected pressure alerts at 9 and 10 waiting, got %v", pressure)
	}
	if msg := d.Describe(err); !strings.Contains(msg, "full") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestDesk_UniqueNames(t *testing.T) {
	cfg := defaultQueueConfig()
	cfg.UniqueNames = true
	cfg.Indexed = true
	d, _ := newDesk(t, cfg)
	ctx := context.Background()

	if _, err := d.Admit(ctx, "ana", 3); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	_, err := d.Admit(ctx, "ana", 7)
	if !errors.Is(err, queue.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if msg := d.Describe(err); msg != "Patient ana is already waiting." {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestDesk_Describe(t *testing.T) {
	d, _ := newDesk(t, defaultQueueConfig())
	ctx := context.Background()

	_, errEmpty := d.TreatNext(ctx)
	_, errMissing := d.UpdateSeverity(ctx, "zed", 3)
	_, errRange := d.Admit(ctx, "ana", 12)
	_, errName := d.Admit(ctx, "", 3)

	tests := []struct {
		err  error
		want string
	}{
		{errEmpty, "No patients in the queue."},
		{errMissing, "Patient zed not found."},
		{errRange, "Invalid severity. Please enter a severity between 0 and 10."},
		{errName, `Invalid patient name "".`},
		{nil, ""},
		{errors.New("disk on fire"), "disk on fire"},
	}
	for _, tt := range tests {
		if got := d.Describe(tt.err); got != tt.want {
			t.Errorf("Describe(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestDesk_ApplyConfig(t *testing.T) {
	d, n := newDesk(t, defaultQueueConfig())
	ctx := context.Background()

	cfg := defaultQueueConfig()
	cfg.MaxSeverity = 5
	cfg.CriticalSeverity = 4
	if err := d.ApplyConfig(cfg); err != nil {
		t.Fatalf("ApplyConfig failed: %v", err)
	}

	if _, err := d.Admit(ctx, "ana", 8); !errors.Is(err, triage.ErrSeverityOutOfRange) {
		t.Errorf("expected new max to apply, got %v", err)
	}
	if _, err := d.Admit(ctx, "ben", 4); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	if got := n.Count(mocks.AlertCritical); got != 1 {
		t.Errorf("expected new critical threshold to apply, got %d alerts", got)
	}

	bad := cfg
	bad.MinSeverity = 9
	if err := d.ApplyConfig(bad); err == nil {
		t.Error("expected invalid config to be rejected")
	}
	if d.Bounds().MaxSeverity != 5 {
		t.Errorf("rejected config must not change bounds, got %+v", d.Bounds())
	}
}

func TestNewDesk_InvalidConfig(t *testing.T) {
	cfg := defaultQueueConfig()
	cfg.MinSeverity = 20
	if _, err := triage.NewDesk(cfg, logger.NewNopLogger(), nil); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestDesk_NilNotifier(t *testing.T) {
	d, err := triage.NewDesk(defaultQueueConfig(), logger.NewNopLogger(), nil)
	if err != nil {
		t.Fatalf("NewDesk failed: %v", err)
	}
	ctx := context.Background()
	if _, err := d.Admit(ctx, "ana", 10); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	if _, err := d.TreatNext(ctx); err != nil {
		t.Fatalf("TreatNext failed: %v", err)
	}
}

func TestDesk_LogsWithContextFields(t *testing.T) {
	log := mocks.NewMockLogger()
	d, err := triage.NewDesk(defaultQueueConfig(), log, nil)
	if err != nil {
		t.Fatalf("NewDesk failed: %v", err)
	}

	ctx := tcontext.WithSessionID(context.Background(), "ses_test")
	ctx = tcontext.ForOperation(ctx, "admit")
	entry, err := d.Admit(ctx, "ana", 6)
	if err != nil {
		t.Fatalf("Admit failed: %v", err)
	}

	got, ok := log.Find("Patient admitted")
	if !ok {
		t.Fatalf("no admission logged, entries: %+v", log.Entries())
	}
	if got.Component != "desk" {
		t.Errorf("component = %q, want desk", got.Component)
	}
	for key, want := range map[string]interface{}{
		"name":    "ana",
		"ticket":  entry.Ticket,
		"session": "ses_test",
		"op":      "admit",
	} {
		if got.Fields[key] != want {
			t.Errorf("field %s = %v, want %v", key, got.Fields[key], want)
		}
	}

	d.Admit(ctx, "ben", 99)
	if rejected, ok := log.Find("Admission rejected"); !ok || rejected.Level != "warn" {
		t.Errorf("expected a warning for the rejected admission, got %+v", rejected)
	}
}

func TestDesk_LogsRejectedUpdate(t *testing.T) {
	log := mocks.NewMockLogger()
	d, err := triage.NewDesk(defaultQueueConfig(), log, nil)
	if err != nil {
		t.Fatalf("NewDesk failed: %v", err)
	}

	ctx := tcontext.ForOperation(context.Background(), "update")
	if _, err := d.Admit(ctx, "ana", 3); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	if _, err := d.UpdateSeverity(ctx, "ana", 42); !errors.Is(err, triage.ErrSeverityOutOfRange) {
		t.Fatalf("expected ErrSeverityOutOfRange, got %v", err)
	}

	got, ok := log.Find("Severity update rejected")
	if !ok {
		t.Fatalf("rejected update not logged, entries: %+v", log.Entries())
	}
	if got.Level != "warn" || got.Fields["name"] != "ana" || got.Fields["op"] != "update" {
		t.Errorf("unexpected log entry: %+v", got)
	}
	if _, ok := got.Fields["elapsed"]; !ok {
		t.Errorf("expected elapsed field from the operation context, got %+v", got.Fields)
	}
	if d.Stats().Rejected != 1 {
		t.Errorf("expected 1 rejection, got %d", d.Stats().Rejected)
	}
}
