// Package model defines the persisted entities of the pipeline and the
// job lifecycle state machine.
//
// Valid status graph:
//
//	NEW ──► SCORED ──► ELIGIBLE ──► APPLIED
//	 │         │           │
//	 └─────────┴───────────┴──► SKIPPED | FAILED
//
//	FAILED ──► ELIGIBLE   (scored failure, retried on a later run)
//	FAILED ──► SCORED     (unscored failure, back through scoring)
//
// APPLIED and SKIPPED are terminal states.
package model

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a JobRecord.
type Status string

const (
	StatusNew      Status = "NEW"
	StatusScored   Status = "SCORED"
	StatusEligible Status = "ELIGIBLE"
	StatusApplied  Status = "APPLIED"
	StatusSkipped  Status = "SKIPPED"
	StatusFailed   Status = "FAILED"
)

// Reason codes recorded alongside terminal statuses.
const (
	ReasonExternalRedirect   = "external-redirect"
	ReasonManualVerification = "manual-verification"
	ReasonLanguageFiltered   = "language-filtered"
	ReasonScorerError        = "scorer-error"
	ReasonTransportExhausted = "transport-exhausted"
	ReasonPageTimeout        = "page-timeout"
	ReasonNoApplyControl     = "no-apply-control"
	ReasonWouldApply         = "would-apply"
	ReasonApplyError         = "apply-error"
	ReasonNoConfirmation     = "no-confirmation"
	ReasonRetryNextRun       = "retry-next-run"
)

// validTransitions lists every allowed (from → to) pair. FAILED → ELIGIBLE
// is the single backward edge: a failed attempt may be re-queued on a later
// run. APPLIED and SKIPPED have no outgoing transitions.
var validTransitions = map[Status][]Status{
	StatusNew:      {StatusScored, StatusSkipped, StatusFailed},
	StatusScored:   {StatusEligible, StatusSkipped, StatusFailed},
	StatusEligible: {StatusApplied, StatusSkipped, StatusFailed},
	StatusFailed:   {StatusEligible, StatusScored},
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(s))
	switch st {
	case StatusNew, StatusScored, StatusEligible, StatusApplied, StatusSkipped, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted.
// A same-status write is always allowed: it is bookkeeping (attempt count,
// dry-run audit), not a transition.
func IsTransitionAllowed(from, to Status) bool {
	if from == to {
		return true
	}
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state, no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for statuses with no outgoing transitions.
func IsTerminal(s Status) bool {
	_, ok := validTransitions[s]
	return !ok
}
