// Package connection provides retry timing for re-establishing host
// network connectivity after a provisioning session.
//
// # Rejoin Strategy
//
// When the controller leaves its home network to talk to a device-hosted
// access point, it must rejoin afterwards. Rejoin attempts use exponential
// backoff inside the restore budget:
//
//  1. Initial delay: 500 milliseconds
//  2. Exponential increase: 1s, 2s, 4s
//  3. Maximum delay: 4 seconds
//  4. Continue at 4s until the budget (context) expires
//
// # Jitter
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
//
// Rejoin failure is reported to the caller, never retried past the budget.
package connection
