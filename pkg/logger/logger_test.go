package logger_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tcontext "github.com/triagekit/triage/pkg/context"
	"github.com/triagekit/triage/pkg/logger"
)

func TestCreateLogger(t *testing.T) {
	log := logger.CreateLogger("", "info")
	if log == nil {
		t.Fatal("expected logger to be created")
	}
}

func TestCreateLogger_UnopenableFileWarns(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	stderr := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = stderr }()

	logger.CreateLogger(filepath.Join(t.TempDir(), "missing", "triage.log"), "info")
	w.Close()

	out, _ := io.ReadAll(r)
	if !strings.Contains(string(out), "cannot open log file") {
		t.Errorf("expected a warning about the log file, got %q", out)
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.WithComponent("desk").Info("patient admitted")

	output := buf.String()
	if !strings.Contains(output, "[desk]") {
		t.Errorf("expected component prefix in output, got %q", output)
	}
	if !strings.Contains(output, "patient admitted") {
		t.Errorf("expected message in output, got %q", output)
	}
}

func TestLogger_FieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.Info("admitted",
		logger.WithField("severity", 7),
		logger.WithField("name", "alex"),
		logger.WithError(errors.New("boom")),
	)

	output := buf.String()
	if !strings.Contains(output, "{error=boom, name=alex, severity=7}") {
		t.Errorf("expected sorted fields, got %q", output)
	}
}

func TestLogger_Success(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.Success("patient treated")

	if !strings.Contains(buf.String(), "✅ patient treated") {
		t.Errorf("expected success marker, got %q", buf.String())
	}
}

func TestLogger_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("error", &buf)

	log.Debug("should not appear")
	log.Info("should not appear")
	log.Warn("should not appear")
	log.Error("should appear")

	output := buf.String()
	if strings.Contains(output, "should not appear") {
		t.Error("lower level logs should not appear with error level")
	}
	if !strings.Contains(output, "should appear") {
		t.Error("error level log should appear")
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)
	child := log.WithComponent("queue")

	child.Debug("hidden")
	if err := log.(*logger.ComponentLogger).SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel failed: %v", err)
	}
	child.Debug("visible")

	output := buf.String()
	if strings.Contains(output, "hidden") || !strings.Contains(output, "visible") {
		t.Errorf("expected level change to reach derived loggers, got %q", output)
	}

	if err := log.(*logger.ComponentLogger).SetLevel("loud"); err == nil {
		t.Error("expected invalid level to be rejected")
	}
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	base := logger.CreateLoggerWithOutput("info", &buf)

	ctx := tcontext.WithSessionID(context.Background(), "ses_test")
	ctx = tcontext.WithOperation(ctx, "admit")

	logger.WithContext(ctx, base).Info("traced")

	output := buf.String()
	if !strings.Contains(output, "session=ses_test") || !strings.Contains(output, "op=admit") {
		t.Errorf("expected tracing fields, got %q", output)
	}
}

func TestNopLogger(t *testing.T) {
	log := logger.NewNopLogger()
	log.Error("discarded")
	log.WithComponent("x").Success("discarded")
}

type recordingContextLogger struct {
	logger.Logger
	calls []string
	ctx   context.Context
}

func (r *recordingContextLogger) InfoContext(ctx context.Context, message string, fields ...logger.Field) {
	r.calls, r.ctx = append(r.calls, "info:"+message), ctx
}

func (r *recordingContextLogger) ErrorContext(ctx context.Context, message string, fields ...logger.Field) {
	r.calls, r.ctx = append(r.calls, "error:"+message), ctx
}

func (r *recordingContextLogger) WarnContext(ctx context.Context, message string, fields ...logger.Field) {
	r.calls, r.ctx = append(r.calls, "warn:"+message), ctx
}

func (r *recordingContextLogger) DebugContext(ctx context.Context, message string, fields ...logger.Field) {
	r.calls, r.ctx = append(r.calls, "debug:"+message), ctx
}

func TestWithContext_UsesContextVariants(t *testing.T) {
	rec := &recordingContextLogger{Logger: logger.NewNopLogger()}
	ctx := tcontext.WithSessionID(context.Background(), "ses_ctx")

	log := logger.WithContext(ctx, rec)
	log.Info("a")
	log.Error("b")
	log.Warn("c")
	log.Debug("d")

	want := []string{"info:a", "error:b", "warn:c", "debug:d"}
	if strings.Join(rec.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}
	if id, _ := tcontext.SessionID(rec.ctx); id != "ses_ctx" {
		t.Errorf("context not passed through, session %q", id)
	}
}

type plainLogger struct {
	logger.Logger
	fields []logger.Field
}

func (p *plainLogger) Warn(message string, fields ...logger.Field) {
	p.fields = fields
}

func TestWithContext_FallsBackToFields(t *testing.T) {
	plain := &plainLogger{Logger: logger.NewNopLogger()}
	ctx := tcontext.WithOperation(context.Background(), "treat")

	logger.WithContext(ctx, plain).Warn("empty", logger.WithField("waiting", 0))

	if len(plain.fields) != 2 || plain.fields[0].Key != "op" || plain.fields[1].Key != "waiting" {
		t.Errorf("expected context fields ahead of call fields, got %+v", plain.fields)
	}
}

func TestComponentLogger_InfoContext(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf).(*logger.ComponentLogger)

	ctx := tcontext.ForOperation(context.Background(), "update")
	log.InfoContext(ctx, "re-graded")

	output := buf.String()
	for _, want := range []string{"op=update", "request=req_", "elapsed="} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in %q", want, output)
		}
	}
}
