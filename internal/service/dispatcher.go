package service

import (
	"log"
	"time"

	"facegate/internal/model"
)

// SignalPublisher is what the dispatcher needs from the publisher.
type SignalPublisher interface {
	Publish(signal model.Signal) bool
}

// SignalObserver receives every dispatched signal together with the delivery
// outcome. The WebSocket hub implements this to feed dashboards.
type SignalObserver interface {
	SignalDispatched(signal model.Signal, delivered bool)
}

// SignalDispatcher turns login/logout domain events into wire signals.
// A failed publish is logged and swallowed: the triggering login or logout
// has already been recorded locally and must not fail because the broker is
// down.
type SignalDispatcher struct {
	publisher SignalPublisher
	observer  SignalObserver
}

// NewSignalDispatcher creates a dispatcher. observer may be nil.
func NewSignalDispatcher(publisher SignalPublisher, observer SignalObserver) *SignalDispatcher {
	return &SignalDispatcher{publisher: publisher, observer: observer}
}

// OnLogin publishes an unlock signal for the machine the operator checked
// in on.
func (d *SignalDispatcher) OnLogin(operatorID, machineNo string) {
	d.dispatch(model.Signal{
		Action:     model.SignalActionUnlock,
		OperatorID: operatorID,
		MachineNo:  machineNo,
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}

// OnLogout publishes a lock signal on the same topic; the controller keys on
// the action field, not the topic.
func (d *SignalDispatcher) OnLogout(operatorID, machineNo string) {
	d.dispatch(model.Signal{
		Action:     model.SignalActionLock,
		OperatorID: operatorID,
		MachineNo:  machineNo,
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}

func (d *SignalDispatcher) dispatch(signal model.Signal) {
	delivered := d.publisher.Publish(signal)
	if !delivered {
		// The signal is dropped, not re-queued. Known limitation.
		log.Printf("[Dispatcher] Warning: %s signal for machine %s not delivered", signal.Action, signal.MachineNo)
	}
	if d.observer != nil {
		d.observer.SignalDispatched(signal, delivered)
	}
}
