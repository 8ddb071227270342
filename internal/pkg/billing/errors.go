package billing

import (
	"errors"
	"fmt"
)

// ErrNotApplicable marks a verified event this service has nothing to do
// for (unknown event kind, or a payload missing the fields the flow
// needs). Such events are acknowledged with 200 and no action; acking
// them stops pointless redelivery.
var ErrNotApplicable = errors.New("event not applicable")

// GatewayError wraps a failed gateway call. Irreversible is set when the
// failure happened after a step that cannot be rolled back (the old
// subscription was already cancelled); those need manual reconciliation
// and are logged at high severity by the processor.
type GatewayError struct {
	Op           string
	Irreversible bool
	Err          error
}

func (e *GatewayError) Error() string {
	if e.Irreversible {
		return fmt.Sprintf("gateway %s failed after irreversible step: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// PersistenceError wraps a store write that failed after a successful
// gateway mutation; gateway and persisted state are divergent until the
// event is redelivered.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
