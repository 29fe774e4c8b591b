package model

// Signal actions published to machine lock controllers.
const (
	SignalActionUnlock = "unlock"
	SignalActionLock   = "lock"
)

// Signal is the payload published to factory/machine/{machine_no}/unlock.
// Lock and unlock share the topic; the controller switches on Action.
type Signal struct {
	Action     string `json:"action"`
	OperatorID string `json:"operator_id"`
	MachineNo  string `json:"machine_no"`
	Timestamp  string `json:"timestamp"` // ISO8601
}
