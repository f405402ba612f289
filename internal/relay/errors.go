package relay

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Kind classifies relay failures so callers can choose a retry policy.
type Kind string

const (
	// KindInvalidInput marks caller errors; retrying unchanged cannot help.
	KindInvalidInput Kind = "invalid_input"
	// KindRegistryUnavailable marks a registry write that could not be
	// persisted.
	KindRegistryUnavailable Kind = "registry_unavailable"
	// KindChainRPCFailure marks transport-level failures; safe to retry
	// with backoff.
	KindChainRPCFailure Kind = "chain_rpc_failure"
	// KindReverted marks on-chain execution failure; never retried with
	// the same nonce.
	KindReverted Kind = "reverted"
	// KindOwnerMismatch marks a stored owner address that disagrees with
	// re-derivation. Signals registry tampering or a derivation-scheme
	// change; fatal, never auto-corrected.
	KindOwnerMismatch Kind = "owner_mismatch"
	// KindTimeout marks a submitted transaction that was not confirmed in
	// the window. The transaction is not necessarily failed.
	KindTimeout Kind = "timeout"
)

// Error is the structured failure every relay component returns: a kind for
// retry decisions, a readable message, and the raw provider payload when one
// was attached.
type Error struct {
	Kind    Kind
	Message string
	Data    []byte
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DataHex returns the raw provider payload hex-encoded, or "" when absent.
func (e *Error) DataHex() string {
	if len(e.Data) == 0 {
		return ""
	}
	return hexutil.Encode(e.Data)
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the failure kind from err, or "" for foreign errors.
func KindOf(err error) Kind {
	var relayErr *Error
	if errors.As(err, &relayErr) {
		return relayErr.Kind
	}
	return ""
}
