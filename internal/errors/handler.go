package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies the ANSI sequences used when rendering error
// messages. The CLI passes its theme-backed implementation; nil disables
// colors.
type ColorProvider interface {
	Red() string
	Yellow() string
	Reset() string
}

// HandleRunError renders err to out and maps it to a process exit code.
// A nil error maps to ExitSuccess without output.
//
// Parameters:
//   - err: The error returned by a run, or nil.
//   - duration: Elapsed time of the run, shown when non-zero.
//   - out: Destination for the human-readable message.
//   - colors: Optional color provider.
//
// Returns:
//   - int: The exit code matching the error class.
func HandleRunError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}

	red, yellow, reset := "", "", ""
	if colors != nil {
		red, yellow, reset = colors.Red(), colors.Yellow(), colors.Reset()
	}

	suffix := ""
	if duration > 0 {
		suffix = fmt.Sprintf(" after %s%s%s", yellow, duration, reset)
	}

	var timeoutErr TimeoutError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &timeoutErr):
		fmt.Fprintf(out, "%sStatus: Timeout%s. The run exceeded its time limit%s.\n", red, reset, suffix)
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sStatus: Canceled%s by user%s.\n", yellow, reset, suffix)
		return ExitErrorCanceled
	case IsValidationError(err):
		fmt.Fprintf(out, "%sStatus: Rejected%s. %v\n", red, reset, err)
		return ExitErrorConfig
	default:
		fmt.Fprintf(out, "%sStatus: Failure%s%s. %v\n", red, reset, suffix, err)
		return ExitErrorGeneric
	}
}
