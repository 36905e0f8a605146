// Package dispatch holds the two reactive dispatch paths: the broadcast
// fan-out triggered by notification creation, and the single-target chat
// path triggered by a new chat message.
//
// Both paths share one failure policy: per-item failures are logged and
// folded into the outcome, skip preconditions end the dispatch quietly,
// and only a request-level transport fault is returned as an error (the
// runner applies its bounded retry to those).
package dispatch

import (
	"pushfan/internal/push"
)

type State string

const (
	// StateReconciled means a delivery request was submitted and its
	// per-item results were accounted for.
	StateReconciled State = "reconciled"
	// StateSkipped means a dispatch precondition was absent. Not an error.
	StateSkipped State = "skipped"
)

// Outcome is the terminal result of one dispatch invocation.
type Outcome struct {
	State State
	// Reason explains a skip ("" when reconciled).
	Reason string
	// Batch carries per-token accounting. The chat path synthesizes a
	// single-entry batch so both paths reconcile the same way.
	Batch *push.BatchOutcome
}

func skipped(reason string) Outcome {
	return Outcome{State: StateSkipped, Reason: reason}
}

func reconciled(b *push.BatchOutcome) Outcome {
	return Outcome{State: StateReconciled, Batch: b}
}
