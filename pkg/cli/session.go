package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	tcontext "github.com/triagekit/triage/pkg/context"
	"github.com/triagekit/triage/pkg/triage"
)

const sessionHelp = `Commands:
  1 | add NAME SEVERITY      admit a patient
  2 | treat                  treat the most urgent patient
  3 | update NAME SEVERITY   change a waiting patient's severity
  4 | list                   show the queue
  stats                      show desk counters
  help                       show this help
  5 | quit                   leave the session`

// Session interprets front desk commands against a desk
type Session struct {
	desk      *triage.Desk
	out       io.Writer
	prompt    bool
	autoBoard bool
	colors    bool
	now       func() time.Time
}

// NewSession creates a command interpreter writing to out
func NewSession(desk *triage.Desk, out io.Writer) *Session {
	return &Session{
		desk:      desk,
		out:       out,
		autoBoard: true,
		now:       time.Now,
	}
}

// Run reads commands from in until quit, end of input or cancellation.
// Cancellation returns ctx.Err() without waiting for the next line; the
// reader goroutine is left blocked on in until it yields or closes.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		var err error
		defer func() {
			readErr <- err
			close(lines)
		}()

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
		err = scanner.Err()
	}()

	for {
		if s.prompt {
			fmt.Fprint(s.out, paint(s.colors, color.FgBlue).Sprint("triage> "))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := <-readErr; err != nil {
					return fmt.Errorf("failed to read commands: %w", err)
				}
				return nil
			}
			if s.Execute(ctx, line) {
				return nil
			}
		}
	}
}

// Execute runs a single command line and reports whether the session
// should end. Desk failures are reported to the user, never returned.
func (s *Session) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "1", "add":
		name, severity, ok := s.parsePatient(args)
		if !ok {
			return false
		}
		opCtx := tcontext.ForOperation(ctx, "admit")
		if _, err := s.desk.Admit(opCtx, name, severity); err != nil {
			s.fail(err)
			return false
		}
		s.ok(fmt.Sprintf("Admitted patient: %s with severity %d", name, severity))
		s.changed()

	case "2", "treat":
		opCtx := tcontext.ForOperation(ctx, "treat")
		entry, err := s.desk.TreatNext(opCtx)
		if err != nil {
			s.fail(err)
			return false
		}
		s.ok(fmt.Sprintf("Treated patient: %s with severity %d", entry.ID, entry.Severity))
		s.changed()

	case "3", "update":
		name, severity, ok := s.parsePatient(args)
		if !ok {
			return false
		}
		opCtx := tcontext.ForOperation(ctx, "update")
		if _, err := s.desk.UpdateSeverity(opCtx, name, severity); err != nil {
			s.fail(err)
			return false
		}
		s.ok(fmt.Sprintf("Updated patient: %s to severity %d", name, severity))
		s.changed()

	case "4", "list", "ls":
		renderBoard(s.out, s.desk.Board(), s.now(), s.colors)

	case "stats":
		st := s.desk.Stats()
		capacity := "unbounded"
		if st.Capacity > 0 {
			capacity = strconv.Itoa(st.Capacity)
		}
		fmt.Fprintf(s.out, "waiting=%d capacity=%s admitted=%d treated=%d updated=%d rejected=%d\n",
			st.Waiting, capacity, st.Admitted, st.Treated, st.Updated, st.Rejected)

	case "help", "?":
		fmt.Fprintln(s.out, sessionHelp)

	case "5", "quit", "exit":
		fmt.Fprintln(s.out, paint(s.colors, color.FgRed).Sprint("Exiting..."))
		return true

	default:
		s.warn("Invalid choice. Please try again.")
	}
	return false
}

func (s *Session) parsePatient(args []string) (string, int, bool) {
	if len(args) != 2 {
		s.warn("Usage: NAME SEVERITY")
		return "", 0, false
	}
	severity, err := strconv.Atoi(args[1])
	if err != nil {
		s.fail(fmt.Errorf("severity %q: %w", args[1], triage.ErrSeverityOutOfRange))
		return "", 0, false
	}
	return args[0], severity, true
}

func (s *Session) changed() {
	if s.autoBoard {
		renderBoard(s.out, s.desk.Board(), s.now(), s.colors)
	}
}

func (s *Session) ok(message string) {
	fmt.Fprintln(s.out, paint(s.colors, color.FgGreen).Sprint(message))
}

func (s *Session) warn(message string) {
	fmt.Fprintln(s.out, paint(s.colors, color.FgRed).Sprint(message))
}

func (s *Session) fail(err error) {
	s.warn(s.desk.Describe(err))
}

// errSessionClosed ends the reload watcher once the session loop returns
var errSessionClosed = errors.New("session closed")
