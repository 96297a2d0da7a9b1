package syncx

import "fmt"

// Code classifies the result of one sync pass. The scheduler uses it to
// decide whether a failed pass should be retried within the current cycle.
type Code int

const (
	Success Code = iota

	// RetryableNetwork: no connectivity, or the server was unreachable.
	RetryableNetwork

	// RetryableServer: the server answered but failed (5xx-equivalent).
	RetryableServer

	// FatalAuth: the server rejected our credentials; retrying the same
	// pass cannot succeed.
	FatalAuth

	// FatalSchema: unknown collection or a local store failure; the pass
	// is aborted and not retried this cycle.
	FatalSchema

	// ManualConflict: reconciliation under the Manual strategy found a
	// conflict; the caller must resolve it, retrying cannot.
	ManualConflict
)

func (c Code) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case RetryableNetwork:
		return "RETRYABLE_NETWORK"
	case RetryableServer:
		return "RETRYABLE_SERVER"
	case FatalAuth:
		return "FATAL_AUTH"
	case FatalSchema:
		return "FATAL_SCHEMA"
	case ManualConflict:
		return "MANUAL_CONFLICT"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Retryable reports whether a pass ending with c may succeed if repeated
// without outside intervention.
func (c Code) Retryable() bool {
	return c == RetryableNetwork || c == RetryableServer
}

// Outcome is the result of one orchestrator pass. Err is nil on Success and
// carries the classified cause otherwise; for ManualConflict it is a
// *ConflictError holding both document versions.
type Outcome struct {
	Code Code
	Err  error
}

func (o Outcome) String() string {
	if o.Err == nil {
		return o.Code.String()
	}
	return fmt.Sprintf("%s: %v", o.Code, o.Err)
}

func success() Outcome {
	return Outcome{Code: Success}
}

func failure(code Code, err error) Outcome {
	return Outcome{Code: code, Err: err}
}
