package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facegate/internal/model"
)

type fakePublisher struct {
	signals []model.Signal
	result  bool
}

func (p *fakePublisher) Publish(signal model.Signal) bool {
	p.signals = append(p.signals, signal)
	return p.result
}

type recordingObserver struct {
	signals   []model.Signal
	delivered []bool
}

func (o *recordingObserver) SignalDispatched(signal model.Signal, delivered bool) {
	o.signals = append(o.signals, signal)
	o.delivered = append(o.delivered, delivered)
}

func TestDispatcherOnLogin(t *testing.T) {
	pub := &fakePublisher{result: true}
	obs := &recordingObserver{}
	d := NewSignalDispatcher(pub, obs)

	d.OnLogin("OP1", "M-07")

	require.Len(t, pub.signals, 1)
	assert.Equal(t, model.SignalActionUnlock, pub.signals[0].Action)
	assert.Equal(t, "OP1", pub.signals[0].OperatorID)
	assert.Equal(t, "M-07", pub.signals[0].MachineNo)
	assert.NotEmpty(t, pub.signals[0].Timestamp)

	require.Len(t, obs.delivered, 1)
	assert.True(t, obs.delivered[0])
}

func TestDispatcherOnLogout(t *testing.T) {
	pub := &fakePublisher{result: true}
	d := NewSignalDispatcher(pub, nil)

	d.OnLogout("OP1", "M-07")

	require.Len(t, pub.signals, 1)
	assert.Equal(t, model.SignalActionLock, pub.signals[0].Action)
}

func TestDispatcherSwallowsDeliveryFailure(t *testing.T) {
	pub := &fakePublisher{result: false}
	obs := &recordingObserver{}
	d := NewSignalDispatcher(pub, obs)

	// Must not panic or error; the login flow already committed.
	d.OnLogin("OP1", "M-07")

	require.Len(t, obs.delivered, 1)
	assert.False(t, obs.delivered[0], "observer sees the failed delivery")
}

func TestDispatcherNilObserver(t *testing.T) {
	pub := &fakePublisher{result: true}
	d := NewSignalDispatcher(pub, nil)

	assert.NotPanics(t, func() {
		d.OnLogin("OP1", "M-07")
		d.OnLogout("OP1", "M-07")
	})
}
