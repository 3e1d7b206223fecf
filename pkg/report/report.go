// Package report is the OutcomeReporter: a thin wrapper over
// stdout/stderr that emits human-readable progress/error lines and
// carries numeric exit codes, plus an optional structured debug/trace
// channel for diagnostics that aren't part of the user-visible
// contract.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// ExitError carries the numeric exit code a driver returns to main().
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// IsExitCode reports whether err is an *ExitError with the given code.
func IsExitCode(err error, code int) bool {
	if err == nil {
		return false
	}
	e, ok := err.(*ExitError)
	return ok && e.Code == code
}

func NewExitError(code int, format string, a ...any) *ExitError {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, a...)}
}

// Reporter is the OutcomeReporter: progress/error lines go straight to
// Out/Err (plain fmt, matching the reference VCS's die/warn idiom);
// Debug goes through logrus, gated by Verbose.
type Reporter struct {
	Out, Err io.Writer
	Verbose  bool
	log      *logrus.Logger
}

func New(out, err io.Writer, verbose bool) *Reporter {
	log := logrus.New()
	log.SetOutput(err)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return &Reporter{Out: out, Err: err, Verbose: verbose, log: log}
}

// Progress emits exactly one progress line for a path — the contract
// of §4.1/§4.7: at most one per path on the clean or conflict path.
func (r *Reporter) Progress(format string, a ...any) {
	fmt.Fprintf(r.Out, format+"\n", a...)
}

// Error emits a single-line, path-prefixed error to stderr.
func (r *Reporter) Error(path, format string, a ...any) {
	var b bytes.Buffer
	b.WriteString("error: ")
	if path != "" {
		b.WriteString(path)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, format, a...)
	b.WriteByte('\n')
	_, _ = r.Err.Write(b.Bytes())
}

// Fatal emits a "fatal:"-prefixed line.
func (r *Reporter) Fatal(format string, a ...any) {
	fmt.Fprintf(r.Err, "fatal: "+format+"\n", a...)
}

// Warn emits a "warning:"-prefixed line.
func (r *Reporter) Warn(format string, a ...any) {
	fmt.Fprintf(r.Err, "warning: "+format+"\n", a...)
}

// Debugf is the trace channel; silent unless Verbose.
func (r *Reporter) Debugf(format string, a ...any) {
	r.log.Debugf(format, a...)
}

// ConflictReport is the JSON-serializable supplement to the
// human-readable output (SPEC_FULL §3): machine-readable conflict dump
// for tooling that wants to post-process without re-parsing stderr.
type ConflictReport struct {
	NewTree   string      `json:"new_tree,omitempty"`
	Conflicts []any       `json:"conflicts,omitempty"`
	Messages  []string    `json:"messages,omitempty"`
}

// EmitJSON writes a ConflictReport to w.
func EmitJSON(w io.Writer, report *ConflictReport) error {
	return json.NewEncoder(w).Encode(report)
}

// Stdout/Stderr are convenience defaults for cmd/ binaries.
func Stdout() io.Writer { return os.Stdout }
func Stderr() io.Writer { return os.Stderr }
