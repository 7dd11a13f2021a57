package provisioning

import "time"

// Timeouts are the per-stage budgets of a session.
type Timeouts struct {
	// Permission bounds the gate, including any interactive prompt.
	Permission time.Duration

	// Scan bounds locating the device (radio only).
	Scan time.Duration

	// Connect bounds connecting and service discovery. The access-point
	// transport spends up to 15s of it waiting for the network switch.
	Connect time.Duration

	// Exchange bounds the credentials write.
	Exchange time.Duration

	// Confirmation bounds waiting for the device acknowledgment.
	Confirmation time.Duration

	// Restore bounds releasing the link, including rejoining the
	// original network on the access-point transport.
	Restore time.Duration
}

// DefaultTimeouts returns the stage budgets used when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Permission:   60 * time.Second,
		Scan:         10 * time.Second,
		Connect:      20 * time.Second,
		Exchange:     10 * time.Second,
		Confirmation: 15 * time.Second,
		Restore:      20 * time.Second,
	}
}

// WithDefaults fills zero budgets from DefaultTimeouts.
func (t Timeouts) WithDefaults() Timeouts {
	d := DefaultTimeouts()
	if t.Permission <= 0 {
		t.Permission = d.Permission
	}
	if t.Scan <= 0 {
		t.Scan = d.Scan
	}
	if t.Connect <= 0 {
		t.Connect = d.Connect
	}
	if t.Exchange <= 0 {
		t.Exchange = d.Exchange
	}
	if t.Confirmation <= 0 {
		t.Confirmation = d.Confirmation
	}
	if t.Restore <= 0 {
		t.Restore = d.Restore
	}
	return t
}

// Total is the longest a session can take.
func (t Timeouts) Total() time.Duration {
	return t.Permission + t.Scan + t.Connect + t.Exchange + t.Confirmation + t.Restore
}

// budget returns the budget of a non-terminal state.
func (t Timeouts) budget(s State) time.Duration {
	switch s {
	case StatePermissionCheck:
		return t.Permission
	case StateScanning:
		return t.Scan
	case StateConnecting:
		return t.Connect
	case StateCredentialExchange:
		return t.Exchange
	case StateAwaitingConfirmation:
		return t.Confirmation
	case StateRestoringConnectivity:
		return t.Restore
	default:
		return 0
	}
}
