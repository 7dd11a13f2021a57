package provisioning

import "time"

// State is a session state.
type State uint8

const (
	StateIdle State = iota
	StatePermissionCheck
	StateScanning
	StateConnecting
	StateCredentialExchange
	StateAwaitingConfirmation
	StateRestoringConnectivity
	StateSucceeded
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePermissionCheck:
		return "PERMISSION_CHECK"
	case StateScanning:
		return "SCANNING"
	case StateConnecting:
		return "CONNECTING"
	case StateCredentialExchange:
		return "CREDENTIAL_EXCHANGE"
	case StateAwaitingConfirmation:
		return "AWAITING_CONFIRMATION"
	case StateRestoringConnectivity:
		return "RESTORING_CONNECTIVITY"
	case StateSucceeded:
		return "SUCCEEDED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether s is Succeeded or Failed.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Progress step labels. Both transports report the same labels.
const (
	StepCheckingPermissions    = "checking permissions"
	StepScanning               = "scanning"
	StepConnecting             = "connecting"
	StepDiscoveringServices    = "discovering services"
	StepSendingCredentials     = "sending credentials"
	StepWaitingForConfirmation = "waiting for confirmation"
	StepRestoringConnectivity  = "restoring connectivity"
	StepSucceeded              = "succeeded"
	StepFailed                 = "failed"
)

// Event is one entry of a session's progress sequence.
type Event struct {
	State State
	Step  string

	// Elapsed is the time since the session started.
	Elapsed time.Duration

	// Budget is the time allowed for the state, zero for terminal states.
	Budget time.Duration
}

// ProgressFunc receives step labels as the session advances.
type ProgressFunc func(step string)
