// Package provisioning drives a single WiFi onboarding session against a
// SmartMonitor device.
//
// A Session walks one Transport through a fixed sequence of states:
//
//	IDLE -> PERMISSION_CHECK -> SCANNING (radio only) -> CONNECTING ->
//	CREDENTIAL_EXCHANGE -> AWAITING_CONFIRMATION ->
//	RESTORING_CONNECTIVITY (access point only) -> SUCCEEDED | FAILED
//
// Every stage is bounded by a budget from Timeouts and by the caller's
// context. Cancelling the context ends the session with KindCancelled after
// the link has been released. Each transition is published as an Event on
// a channel that is closed once the terminal event has been sent, and the
// same step label is passed to an optional ProgressFunc.
//
// Transports report failures as *Error values carrying a Kind. The session
// keeps a transport's classification when it is more precise than the
// stage default (for example NetworkSwitchFailed instead of
// ConnectionError).
//
// A Session runs exactly once. Resources are released before the terminal
// state is entered.
package provisioning
