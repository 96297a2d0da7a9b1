// Package syncx contains the offline-first synchronization kernel: the pure
// conflict resolver and the orchestrator that drives pull/push/reconcile
// passes between the local cache and the remote document store.
package syncx

import "fmt"

// Strategy selects how a local/remote conflict for the same document id is
// resolved.
type Strategy int

const (
	// LastWriteWins keeps whichever side was modified later; ties go to
	// remote so replicas converge toward the source of truth.
	LastWriteWins Strategy = iota

	// ServerWins always keeps the remote document.
	ServerWins

	// ClientWins always keeps the local document and leaves it dirty.
	ClientWins

	// Manual refuses automatic resolution; Resolve returns a
	// *ConflictError carrying both versions for caller-driven handling.
	Manual
)

func (s Strategy) String() string {
	switch s {
	case LastWriteWins:
		return "last_write_wins"
	case ServerWins:
		return "server_wins"
	case ClientWins:
		return "client_wins"
	case Manual:
		return "manual"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}
