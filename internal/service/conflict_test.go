package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"facegate/internal/model"
)

func opWithTimes(created time.Time, updated *time.Time) *model.Operator {
	return &model.Operator{
		OperatorID:     "OP1",
		Name:           "Zhang Wei",
		CreatedAt:      created,
		CloudUpdatedAt: updated,
	}
}

func TestResolveOperator_NoLocalCopy(t *testing.T) {
	incoming := opWithTimes(time.Now(), nil)
	assert.Equal(t, DecisionCreate, ResolveOperator(nil, incoming))
}

func TestResolveOperator_IncomingNewerWins(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	newer := base.Add(time.Hour)

	existing := opWithTimes(base, nil)
	incoming := opWithTimes(base, &newer)
	assert.Equal(t, DecisionUpdate, ResolveOperator(existing, incoming))
}

func TestResolveOperator_IncomingOlderSkipped(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	newer := base.Add(time.Hour)

	existing := opWithTimes(base, &newer)
	incoming := opWithTimes(base, nil)
	assert.Equal(t, DecisionSkip, ResolveOperator(existing, incoming))
}

func TestResolveOperator_EqualTimestampSkipped(t *testing.T) {
	// The tie rule is what makes re-importing a merged snapshot a no-op.
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	existing := opWithTimes(base, &base)
	incoming := opWithTimes(base, &base)
	assert.Equal(t, DecisionSkip, ResolveOperator(existing, incoming))
}

func TestResolveOperator_FallsBackToCreatedAt(t *testing.T) {
	older := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	newer := older.Add(time.Minute)

	// Neither side has a cloud update timestamp; creation order decides.
	existing := opWithTimes(older, nil)
	incoming := opWithTimes(newer, nil)
	assert.Equal(t, DecisionUpdate, ResolveOperator(existing, incoming))
}

func TestLogKey_NormalizesTimeZones(t *testing.T) {
	shanghai, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	utc := time.Date(2026, 3, 1, 0, 30, 0, 0, time.UTC)
	local := utc.In(shanghai)

	assert.Equal(t, NewLogKey("OP1", utc), NewLogKey("OP1", local))
}

func TestIsDuplicateLog(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 0, 0, 123456789, time.UTC)
	stored := map[LogKey]struct{}{
		NewLogKey("OP1", at): {},
	}

	assert.True(t, IsDuplicateLog(NewLogKey("OP1", at), stored))

	// Different operator, same instant: distinct event.
	assert.False(t, IsDuplicateLog(NewLogKey("OP2", at), stored))

	// Same operator, one nanosecond apart: distinct event, no tolerance window.
	assert.False(t, IsDuplicateLog(NewLogKey("OP1", at.Add(time.Nanosecond)), stored))
}
