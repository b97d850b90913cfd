package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/shootbench/internal/dynamo"
)

// ReferenceBinary is the name of the compiled reference benchmark looked up
// next to the running executable.
const ReferenceBinary = "unicycle-optctrl"

// SubprocessError reports a reference run that exited non-zero or could not
// be started. ExitCode is -1 in the latter case.
type SubprocessError struct {
	Command  string
	ExitCode int
	Err      error
}

func (e *SubprocessError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s: %s exited with code %d", dynamo.ErrSubprocessFailure, e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s: %s: %v", dynamo.ErrSubprocessFailure, e.Command, e.Err)
}

func (e *SubprocessError) Unwrap() error { return dynamo.ErrSubprocessFailure }

// Reference runs an external benchmark with the trial count appended to its
// arguments and streams its output.
type Reference struct {
	Command []string
	Stdout  io.Writer
	Stderr  io.Writer
	logger  *slog.Logger
}

func NewReference(command []string, stdout, stderr io.Writer, logger *slog.Logger) *Reference {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reference{Command: command, Stdout: stdout, Stderr: stderr, logger: logger}
}

// FindReference returns the reference binary sitting next to the current
// executable, or nil when there is none.
func FindReference() []string {
	exe, err := os.Executable()
	if err != nil {
		return nil
	}
	path := filepath.Join(filepath.Dir(exe), ReferenceBinary)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil
	}
	return []string{path}
}

func (r *Reference) Run(ctx context.Context, trials int) error {
	if len(r.Command) == 0 {
		return fmt.Errorf("bench: empty reference command")
	}
	args := append(append([]string(nil), r.Command[1:]...), strconv.Itoa(trials))
	cmd := exec.CommandContext(ctx, r.Command[0], args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	display := strings.Join(append([]string{r.Command[0]}, args...), " ")
	r.logger.Debug("running reference",
		slog.String("command", display),
		slog.Int("trials", trials))

	start := time.Now()
	err := cmd.Run()
	if err == nil {
		r.logger.Info("reference finished",
			slog.String("command", display),
			slog.Duration("duration", time.Since(start)))
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		r.logger.Error("reference failed",
			slog.String("command", display),
			slog.Int("exit_code", exitErr.ExitCode()))
		return &SubprocessError{Command: display, ExitCode: exitErr.ExitCode(), Err: err}
	}
	return &SubprocessError{Command: display, ExitCode: -1, Err: err}
}
