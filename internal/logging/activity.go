package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ActivityLog appends a plain-text record of every invocation and its
// results to a file in the user's home directory. It exists so that a play
// still leaves a trace when the database is down, which means a failure to
// write the log itself must never fail the command: errors are reported to
// errW and swallowed.
type ActivityLog struct {
	path string
	errW io.Writer
	now  func() time.Time
}

// NewActivityLog returns an activity log writing to path. Write errors are
// reported to errW.
func NewActivityLog(path string, errW io.Writer) *ActivityLog {
	return &ActivityLog{path: path, errW: errW, now: time.Now}
}

// Invocation records the start of a command: a separator, the wall-clock
// time, the working directory, and the argv.
func (l *ActivityLog) Invocation(cwd string, argv []string) {
	l.append(func(w io.Writer) error {
		if _, err := fmt.Fprintf(w, "%s\n", strings.Repeat("-", 60)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Timestamp: %s\n", l.now().Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Cwd: %s\n", cwd); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Command: %s\n", strings.Join(argv, " ")); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	})
}

// Result records a single outcome line under the current invocation.
func (l *ActivityLog) Result(line string) {
	l.Results([]string{line})
}

// Results records a block of outcome lines. An empty block writes nothing.
func (l *ActivityLog) Results(lines []string) {
	if len(lines) == 0 {
		return
	}
	l.append(func(w io.Writer) error {
		for _, line := range lines {
			if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintln(w)
		return err
	})
}

func (l *ActivityLog) append(write func(w io.Writer) error) {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.complain(err)
		return
	}
	defer f.Close()

	if err := write(f); err != nil {
		l.complain(err)
	}
}

func (l *ActivityLog) complain(err error) {
	if l.errW != nil {
		fmt.Fprintf(l.errW, "Error writing to logfile: %v\n", err)
	}
}
