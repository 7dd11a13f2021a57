// Package persistence stores the controller's registry of provisioned
// devices as a versioned JSON file.
//
// Only successful provisioning results are recorded. Credentials are
// never written; the registry keeps the network name for display.
package persistence
