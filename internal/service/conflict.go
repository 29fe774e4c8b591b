package service

import (
	"time"

	"facegate/internal/model"
)

// Decision is the outcome of resolving an incoming operator record against
// the local copy.
type Decision int

const (
	DecisionCreate Decision = iota
	DecisionUpdate
	DecisionSkip
)

func (d Decision) String() string {
	switch d {
	case DecisionCreate:
		return "create"
	case DecisionUpdate:
		return "update"
	default:
		return "skip"
	}
}

// ResolveOperator decides what to do with an incoming operator record using
// last-write-wins on the update timestamp (CloudUpdatedAt, falling back to
// CreatedAt). An equal timestamp keeps the existing copy, which is what makes
// re-importing an already-merged snapshot a no-op.
func ResolveOperator(existing *model.Operator, incoming *model.Operator) Decision {
	if existing == nil {
		return DecisionCreate
	}
	if incoming.UpdateTimestamp().After(existing.UpdateTimestamp()) {
		return DecisionUpdate
	}
	return DecisionSkip
}

// LogKey is the natural identity of a login event. Times are normalized to
// UTC nanoseconds so the same instant parsed from different zone offsets
// still compares equal.
type LogKey struct {
	OperatorID string
	LoginUnix  int64
}

// NewLogKey builds the dedup key for an operator/login-instant pair.
func NewLogKey(operatorID string, loginTime time.Time) LogKey {
	return LogKey{OperatorID: operatorID, LoginUnix: loginTime.UTC().UnixNano()}
}

// IsDuplicateLog reports whether the candidate event already exists in the
// stored key set. Equality is exact; there is no tolerance window.
func IsDuplicateLog(candidate LogKey, stored map[LogKey]struct{}) bool {
	_, ok := stored[candidate]
	return ok
}
